package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CSroseX/mock-http-server/internal/observability"
	"github.com/CSroseX/mock-http-server/internal/payload"
)

const (
	DefaultBindAddr = "0.0.0.0:80"
	DefaultLogLevel = "info"
	DefaultWorkers  = 1
)

// Mode is the response strategy selected by the subcommand.
type Mode string

const (
	ModeStatus  Mode = "status"
	ModePayload Mode = "payload"
)

// ErrVersion is returned when --version was requested.
var ErrVersion = errors.New("version requested")

// Global holds the options shared by both subcommands. It is also the shape
// of the YAML config file.
type Global struct {
	BindAddr  string `yaml:"bind_addr"`
	LogLevel  string `yaml:"log_level"`
	Workers   int    `yaml:"workers"`
	AdminAddr string `yaml:"admin_addr"`
	Trace     bool   `yaml:"trace"`
	RedisAddr string `yaml:"redis_addr"`
}

// Config is the validated startup configuration.
type Config struct {
	Global

	Level observability.Level
	Mode  Mode

	Codes  []int          // ModeStatus
	Source payload.Source // ModePayload

	Wait time.Duration
}

func defaultGlobal() Global {
	return Global{
		BindAddr: DefaultBindAddr,
		LogLevel: DefaultLogLevel,
		Workers:  DefaultWorkers,
	}
}

// loadFile overlays the YAML file at path onto g. Keys absent from the file
// keep their current value.
func loadFile(path string, g *Global) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(g); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

// applyEnv overlays MOCKSERVER_* variables onto g.
func applyEnv(lookup func(string) string, g *Global) error {
	if v := lookup("MOCKSERVER_BIND_ADDR"); v != "" {
		g.BindAddr = v
	}
	if v := lookup("MOCKSERVER_LOG_LEVEL"); v != "" {
		g.LogLevel = v
	}
	if v := lookup("MOCKSERVER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MOCKSERVER_WORKERS: %w", err)
		}
		g.Workers = n
	}
	if v := lookup("MOCKSERVER_ADMIN_ADDR"); v != "" {
		g.AdminAddr = v
	}
	if v := lookup("MOCKSERVER_REDIS_ADDR"); v != "" {
		g.RedisAddr = v
	}
	if v := lookup("MOCKSERVER_TRACE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MOCKSERVER_TRACE: %w", err)
		}
		g.Trace = b
	}
	return nil
}

func (g Global) validate() error {
	if err := validateAddr("bind-addr", g.BindAddr); err != nil {
		return err
	}
	if g.AdminAddr != "" {
		if err := validateAddr("admin-addr", g.AdminAddr); err != nil {
			return err
		}
	}
	if g.RedisAddr != "" {
		if err := validateAddr("redis-addr", g.RedisAddr); err != nil {
			return err
		}
	}
	if g.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", g.Workers)
	}
	return nil
}

func validateAddr(name, addr string) error {
	_, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid %s %q: port must be a number between 0 and 65535", name, addr)
	}
	return nil
}
