package payload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
)

// Kind identifies where a payload comes from.
type Kind int

const (
	KindNone Kind = iota
	KindInline
	KindFile
	KindStdin
)

func (k Kind) String() string {
	switch k {
	case KindInline:
		return "inline"
	case KindFile:
		return "file"
	case KindStdin:
		return "stdin"
	default:
		return "none"
	}
}

var (
	ErrNoSource        = errors.New("payload requires one of --data, --in or --file")
	ErrMultipleSources = errors.New("--data, --in and --file are mutually exclusive")
)

// Source is the single resolved payload origin. Exactly one Kind is set.
type Source struct {
	Kind Kind
	Data string // KindInline
	Path string // KindFile
}

// Inline serves data as given.
func Inline(data string) Source { return Source{Kind: KindInline, Data: data} }

// File serves the contents of path, read once at startup.
func File(path string) Source { return Source{Kind: KindFile, Path: path} }

// Stdin serves everything read from standard input until EOF.
func Stdin() Source { return Source{Kind: KindStdin} }

// Select builds a Source from the three optional flags, rejecting zero or
// several of them.
func Select(data *string, file *string, stdin bool) (Source, error) {
	var picked []Source
	if data != nil {
		picked = append(picked, Inline(*data))
	}
	if file != nil {
		picked = append(picked, File(*file))
	}
	if stdin {
		picked = append(picked, Stdin())
	}

	switch len(picked) {
	case 0:
		return Source{}, ErrNoSource
	case 1:
		return picked[0], nil
	default:
		return Source{}, ErrMultipleSources
	}
}

func (s Source) String() string {
	switch s.Kind {
	case KindInline:
		return "inline(" + strconv.Itoa(len(s.Data)) + " bytes)"
	case KindFile:
		return "file(" + s.Path + ")"
	case KindStdin:
		return "stdin"
	default:
		return "none"
	}
}

// Resolve reads the payload bytes once. stdin is only read for KindStdin,
// until EOF.
func Resolve(src Source, stdin io.Reader) ([]byte, error) {
	switch src.Kind {
	case KindInline:
		return []byte(src.Data), nil
	case KindFile:
		b, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("reading payload file %q: %w", src.Path, err)
		}
		return b, nil
	case KindStdin:
		if stdin == nil {
			return nil, errors.New("reading payload from stdin: no input stream")
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading payload from stdin: %w", err)
		}
		return b, nil
	default:
		return nil, ErrNoSource
	}
}

// Strategy answers every request with 200 and the same body.
type Strategy struct {
	body []byte
}

// New takes ownership of body; callers must not modify it afterwards.
func New(body []byte) *Strategy {
	return &Strategy{body: body}
}

// Len returns the payload size in bytes.
func (s *Strategy) Len() int {
	return len(s.body)
}

func (s *Strategy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Length", strconv.Itoa(len(s.body)))
	w.WriteHeader(http.StatusOK)
	w.Write(s.body)
}
