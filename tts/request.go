// Package tts drives one text-to-speech exchange against a Wyoming server:
// build a request, synthesize, wrap the audio, deliver it.
package tts

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// SynthesisRequest describes one synthesis exchange. It is built once per
// invocation and never mutated afterwards.
type SynthesisRequest struct {
	Host    string // Server host (name or IP)
	Port    int    // Server port (1-65535)
	Model   string // Voice/model name, empty for the server default
	Speaker int    // Speaker index within the model (0 = default)
	Text    string // Text to speak, must be non-empty
}

// Address returns the server address in host:port form.
func (r SynthesisRequest) Address() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Validate checks the request before any network activity happens.
func (r SynthesisRequest) Validate() error {
	if r.Host == "" {
		return ErrNoServer
	}
	if r.Port < 1 || r.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, r.Port)
	}
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	if r.Speaker < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSpeaker, r.Speaker)
	}
	return nil
}

// ParseServerAddress splits a host:port address into its components. The
// port must be present, numeric, and within 1-65535.
func ParseServerAddress(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q (want HOST:PORT)", ErrInvalidAddress, addr)
	}
	if host == "" {
		return "", 0, fmt.Errorf("%w: %q: missing host", ErrInvalidAddress, addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: port is not a number", ErrInvalidAddress, addr)
	}
	if port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("%w: %q: port out of range", ErrInvalidAddress, addr)
	}
	return host, port, nil
}
