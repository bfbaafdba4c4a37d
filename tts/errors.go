package tts

import (
	"errors"
	"fmt"

	"github.com/MattGrayYes/MGTTS/tts/player"
	"github.com/MattGrayYes/MGTTS/tts/wav"
	"github.com/MattGrayYes/MGTTS/tts/wyoming"
)

// Usage errors, reported before any network activity happens.
var (
	ErrNoServer       = errors.New("no server specified")
	ErrEmptyText      = errors.New("no text to speak")
	ErrInvalidAddress = errors.New("invalid server address")
	ErrInvalidSpeaker = errors.New("invalid speaker number")
)

// Fatal errors from the pipeline stages, re-exported from the packages
// that produce them so callers can classify without extra imports.
var (
	ErrConnection    = wyoming.ErrConnection
	ErrTimeout       = wyoming.ErrTimeout
	ErrProtocol      = wyoming.ErrProtocol
	ErrInvalidFormat = wav.ErrInvalidFormat
	ErrWrite         = player.ErrWrite
)

// IsUsageError reports whether err is a usage problem rather than a
// runtime failure.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrNoServer) ||
		errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidSpeaker)
}

// Stage identifies the pipeline stage an error came from.
type Stage string

const (
	StageRequest  Stage = "request"
	StageSynth    Stage = "synthesize"
	StageAssemble Stage = "assemble"
	StageOutput   Stage = "output"
)

// PipelineError carries the failing stage and the server address so a
// failure can be diagnosed without the debug flag.
type PipelineError struct {
	Stage   Stage  // Stage that failed
	Address string // Server address in host:port form
	Err     error  // The underlying error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("%s (%s): %v", e.Stage, e.Address, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, address string, err error) error {
	return &PipelineError{Stage: stage, Address: address, Err: err}
}
