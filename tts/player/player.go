// Package player delivers assembled WAV audio: through the first working
// external player from an ordered candidate list, or to a file.
package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// ErrWrite is returned when an output file cannot be written.
var ErrWrite = errors.New("cannot write output file")

// FallbackFileName is written to the current directory when no player works.
const FallbackFileName = "mgtts-output.wav"

// Status tracks how far a candidate got during one delivery.
type Status int

const (
	// StatusNotTried means the candidate was never reached.
	StatusNotTried Status = iota
	// StatusUnavailable means the binary is not installed.
	StatusUnavailable
	// StatusFailed means the player launched but did not succeed.
	StatusFailed
	// StatusSucceeded means playback completed.
	StatusSucceeded
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusNotTried:
		return "not tried"
	case StatusUnavailable:
		return "unavailable"
	case StatusFailed:
		return "failed"
	case StatusSucceeded:
		return "succeeded"
	}
	return "unknown"
}

// Candidate is one external player invocation. Players either take WAV
// bytes on stdin or need the audio written to a temporary file first.
type Candidate struct {
	Name     string   // Display name
	Binary   string   // Executable looked up in PATH
	Args     []string // Arguments before the optional file path
	UseStdin bool     // Deliver audio via stdin instead of a temp file

	status Status
}

// Status returns the candidate's state after the last delivery attempt.
func (c *Candidate) Status() Status {
	return c.status
}

// DefaultCandidates returns the player preference order: SoX, then ffplay,
// then the platform players.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Name: "sox", Binary: "play", Args: []string{"-q", "-t", "wav", "-"}, UseStdin: true},
		{Name: "ffplay", Binary: "ffplay", Args: []string{"-autoexit", "-nodisp", "-loglevel", "quiet", "-i", "pipe:0"}, UseStdin: true},
		{Name: "paplay", Binary: "paplay", UseStdin: true},
		{Name: "afplay", Binary: "afplay"},
	}
}

// Delivery says which way the audio left the program.
type Delivery int

const (
	// DeliveryPlayed means a player candidate completed playback.
	DeliveryPlayed Delivery = iota
	// DeliverySaved means the audio was written to the requested path.
	DeliverySaved
	// DeliveryFellBack means every player failed and a file was written
	// instead.
	DeliveryFellBack
)

// Outcome describes a completed delivery.
type Outcome struct {
	Delivery Delivery
	Player   string // Candidate name when played
	Path     string // File path when saved or fallen back
	Bytes    int    // Size of the delivered audio
}

// Describe renders the outcome for the user.
func (o Outcome) Describe() string {
	size := humanize.Bytes(uint64(o.Bytes))
	switch o.Delivery {
	case DeliveryPlayed:
		return fmt.Sprintf("played %s via %s", size, o.Player)
	case DeliverySaved:
		return fmt.Sprintf("saved %s to %s", size, o.Path)
	case DeliveryFellBack:
		return fmt.Sprintf("no working audio player found; saved %s to %s", size, o.Path)
	}
	return "no audio delivered"
}

// Dispatcher routes WAV audio to a player or a file.
type Dispatcher struct {
	candidates []Candidate
	logger     *log.Logger

	// lookPath is swapped out in tests
	lookPath func(string) (string, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCandidates overrides the player candidate list.
func WithCandidates(candidates []Candidate) Option {
	return func(d *Dispatcher) {
		d.candidates = candidates
	}
}

// WithLogger sets the logger used for per-candidate diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher with the default candidate order.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		candidates: DefaultCandidates(),
		logger:     log.New(os.Stderr),
		lookPath:   exec.LookPath,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Candidates returns the dispatcher's candidate list with their statuses
// from the last delivery.
func (d *Dispatcher) Candidates() []Candidate {
	return d.candidates
}

// Deliver routes wavData to its destination. With an explicit path the
// audio is written there and no player runs. Without one, the candidates
// are tried in order; if none succeeds the audio lands in FallbackFileName
// in the current directory, which is a degradation, not an error.
func (d *Dispatcher) Deliver(ctx context.Context, wavData []byte, path string) (Outcome, error) {
	if path != "" {
		if err := writeFile(path, wavData); err != nil {
			return Outcome{}, err
		}
		return Outcome{Delivery: DeliverySaved, Path: path, Bytes: len(wavData)}, nil
	}

	for i := range d.candidates {
		c := &d.candidates[i]

		bin, err := d.lookPath(c.Binary)
		if err != nil {
			c.status = StatusUnavailable
			d.logger.Debug("player unavailable", "player", c.Name, "binary", c.Binary)
			continue
		}

		if err := d.run(ctx, c, bin, wavData); err != nil {
			c.status = StatusFailed
			d.logger.Debug("player failed", "player", c.Name, "err", err)
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			continue
		}

		c.status = StatusSucceeded
		return Outcome{Delivery: DeliveryPlayed, Player: c.Name, Bytes: len(wavData)}, nil
	}

	if err := writeFile(FallbackFileName, wavData); err != nil {
		return Outcome{}, err
	}
	return Outcome{Delivery: DeliveryFellBack, Path: FallbackFileName, Bytes: len(wavData)}, nil
}

// run invokes one player candidate and waits for it to finish. Playback has
// no timeout of its own; it must run to completion for the user to hear the
// result, and ctx cancellation still kills the process.
func (d *Dispatcher) run(ctx context.Context, c *Candidate, bin string, wavData []byte) error {
	args := c.Args

	var tmp string
	if !c.UseStdin {
		f, err := os.CreateTemp("", "mgtts-*.wav")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		tmp = f.Name()
		defer os.Remove(tmp)

		if _, err := f.Write(wavData); err != nil {
			f.Close()
			return fmt.Errorf("write temp file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close temp file: %w", err)
		}
		args = append(append([]string{}, args...), tmp)
	}

	cmd := exec.CommandContext(ctx, bin, args...)

	// Stdin must be attached before the process starts.
	if c.UseStdin {
		cmd.Stdin = bytes.NewReader(wavData)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	d.logger.Debug("starting player", "player", c.Name, "binary", bin, "args", args)
	if err := cmd.Run(); err != nil {
		if msg := stderr.String(); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.Name, err, msg)
		}
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// writeFile writes the audio to path, overwriting any existing file.
func writeFile(path string, wavData []byte) error {
	if err := os.WriteFile(path, wavData, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
