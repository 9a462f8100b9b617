package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/CSroseX/mock-http-server/internal/delay"
	"github.com/CSroseX/mock-http-server/internal/observability"
	"github.com/CSroseX/mock-http-server/internal/payload"
	"github.com/CSroseX/mock-http-server/internal/status"
)

const usage = `Mock HTTP server answering every request with rotating status codes or a fixed payload.

Usage:
  mockserver [global options] status [CODE...] [--wait DURATION]
  mockserver [global options] payload (--data STRING | --in | --file PATH) [--wait DURATION]

Global options:
  -b, --bind-addr ADDR    address on which the server listens (default 0.0.0.0:80)
      --log-level LEVEL   off, error, warn, info, debug or trace (default info)
  -w, --workers N         number of workers used to handle requests (default 1)
      --config PATH       YAML file with the global options
      --admin-addr ADDR   serve /metrics, /stats, /analytics and /healthz on ADDR
      --trace             export OpenTelemetry spans to stdout
      --redis-addr ADDR   record response analytics in Redis at ADDR
  -V, --version           print version and exit
  -h, --help              print this help

status:
  CODE...                 status codes to answer with, one after the other (default 200)
  -t, --wait DURATION     time to wait before answering, e.g. 5s or 250ms

payload:
  -d, --data STRING       response content
  -i, --in                read the response content from stdin until EOF
  -f, --file PATH         file containing the response content
  -t, --wait DURATION     time to wait before answering, e.g. 5s or 250ms

Environment variables MOCKSERVER_BIND_ADDR, MOCKSERVER_LOG_LEVEL, MOCKSERVER_WORKERS,
MOCKSERVER_ADMIN_ADDR, MOCKSERVER_REDIS_ADDR, MOCKSERVER_TRACE and MOCKSERVER_CONFIG
override the config file and are overridden by flags.
`

// Usage writes the command help to w.
func Usage(w io.Writer) {
	fmt.Fprint(w, usage)
}

// Parse builds the configuration from command line args (without the program
// name) and environment lookups. It returns flag.ErrHelp or ErrVersion when
// those were requested.
func Parse(args []string, lookupEnv func(string) string) (Config, error) {
	if lookupEnv == nil {
		lookupEnv = func(string) string { return "" }
	}

	def := defaultGlobal()
	var (
		flagGlobal  Global
		configPath  string
		showVersion bool
	)

	fs := flag.NewFlagSet("mockserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&flagGlobal.BindAddr, "bind-addr", def.BindAddr, "")
	fs.StringVar(&flagGlobal.BindAddr, "b", def.BindAddr, "")
	fs.StringVar(&flagGlobal.LogLevel, "log-level", def.LogLevel, "")
	fs.IntVar(&flagGlobal.Workers, "workers", def.Workers, "")
	fs.IntVar(&flagGlobal.Workers, "w", def.Workers, "")
	fs.StringVar(&flagGlobal.AdminAddr, "admin-addr", "", "")
	fs.BoolVar(&flagGlobal.Trace, "trace", false, "")
	fs.StringVar(&flagGlobal.RedisAddr, "redis-addr", "", "")
	fs.StringVar(&configPath, "config", lookupEnv("MOCKSERVER_CONFIG"), "")
	fs.BoolVar(&showVersion, "version", false, "")
	fs.BoolVar(&showVersion, "V", false, "")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if showVersion {
		return Config{}, ErrVersion
	}

	g := def
	if configPath != "" {
		if err := loadFile(configPath, &g); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(lookupEnv, &g); err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bind-addr", "b":
			g.BindAddr = flagGlobal.BindAddr
		case "log-level":
			g.LogLevel = flagGlobal.LogLevel
		case "workers", "w":
			g.Workers = flagGlobal.Workers
		case "admin-addr":
			g.AdminAddr = flagGlobal.AdminAddr
		case "trace":
			g.Trace = flagGlobal.Trace
		case "redis-addr":
			g.RedisAddr = flagGlobal.RedisAddr
		}
	})

	if err := g.validate(); err != nil {
		return Config{}, err
	}
	level, err := observability.ParseLevel(g.LogLevel)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{Global: g, Level: level}

	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New("missing command: expected status or payload")
	}

	switch Mode(rest[0]) {
	case ModeStatus:
		err = parseStatus(rest[1:], &cfg)
	case ModePayload:
		err = parsePayload(rest[1:], &cfg)
	default:
		err = fmt.Errorf("unknown command %q: expected status or payload", rest[0])
	}
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parseStatus(args []string, cfg *Config) error {
	var wait string

	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&wait, "wait", "", "")
	fs.StringVar(&wait, "t", "", "")

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}

	codes := make([]int, 0, len(positional))
	for _, arg := range positional {
		code, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return fmt.Errorf("invalid status code %q: not a number", arg)
		}
		if err := status.Validate(code); err != nil {
			return err
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		codes = []int{200}
	}

	cfg.Mode = ModeStatus
	cfg.Codes = codes
	cfg.Wait, err = parseWait(fs, wait)
	return err
}

func parsePayload(args []string, cfg *Config) error {
	var (
		data, file, wait string
		stdin            bool
	)

	fs := flag.NewFlagSet("payload", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&data, "data", "", "")
	fs.StringVar(&data, "d", "", "")
	fs.StringVar(&file, "file", "", "")
	fs.StringVar(&file, "f", "", "")
	fs.BoolVar(&stdin, "in", false, "")
	fs.BoolVar(&stdin, "i", false, "")
	fs.StringVar(&wait, "wait", "", "")
	fs.StringVar(&wait, "t", "", "")

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("unexpected argument %q for payload", positional[0])
	}

	var dataSet, fileSet bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data", "d":
			dataSet = true
		case "file", "f":
			fileSet = true
		}
	})

	var dataPtr, filePtr *string
	if dataSet {
		dataPtr = &data
	}
	if fileSet {
		filePtr = &file
	}
	src, err := payload.Select(dataPtr, filePtr, stdin)
	if err != nil {
		return err
	}

	cfg.Mode = ModePayload
	cfg.Source = src
	cfg.Wait, err = parseWait(fs, wait)
	return err
}

func parseWait(fs *flag.FlagSet, wait string) (time.Duration, error) {
	var set bool
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "wait" || f.Name == "t" {
			set = true
		}
	})
	if !set {
		return 0, nil
	}

	d, err := delay.Parse(wait)
	if err != nil {
		return 0, fmt.Errorf("invalid --wait: %w", err)
	}
	return d, nil
}

// parseInterleaved lets flags appear before, between and after positional
// arguments. Everything after a literal "--" is positional.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}

		consumed := len(args) - len(rest)
		if consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
