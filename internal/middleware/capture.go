package middleware

import "net/http"

// StatusCapture records the status code and body size written downstream.
type StatusCapture struct {
	http.ResponseWriter
	statusCode int
	bytes      int
	wrote      bool
}

// NewStatusCapture wraps w. Status reports 200 until a handler says otherwise.
func NewStatusCapture(w http.ResponseWriter) *StatusCapture {
	return &StatusCapture{ResponseWriter: w, statusCode: http.StatusOK}
}

func (sc *StatusCapture) WriteHeader(code int) {
	if !sc.wrote {
		sc.statusCode = code
		sc.wrote = true
	}
	sc.ResponseWriter.WriteHeader(code)
}

func (sc *StatusCapture) Write(b []byte) (int, error) {
	if !sc.wrote {
		sc.wrote = true
	}
	n, err := sc.ResponseWriter.Write(b)
	sc.bytes += n
	return n, err
}

// Status is the first status code written, or 200.
func (sc *StatusCapture) Status() int { return sc.statusCode }

// Bytes is the number of body bytes written so far.
func (sc *StatusCapture) Bytes() int { return sc.bytes }

// Unwrap lets http.ResponseController reach the underlying writer.
func (sc *StatusCapture) Unwrap() http.ResponseWriter {
	return sc.ResponseWriter
}
