package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/MattGrayYes/MGTTS/tts/player"
	"github.com/MattGrayYes/MGTTS/tts/wav"
	"github.com/MattGrayYes/MGTTS/tts/wyoming"
)

func testController(synth func(ctx context.Context, req SynthesisRequest) (wav.Format, []byte, error)) *Controller {
	c := NewController(log.New(io.Discard))
	c.synthesize = synth
	return c
}

func validRequest() SynthesisRequest {
	return SynthesisRequest{
		Host:  "10.0.0.69",
		Port:  10200,
		Model: "en_GB-cori-high",
		Text:  "Hello World",
	}
}

// TestSpeakSavesToExplicitPath tests the full pipeline with a two-second
// response saved to a file: no player runs, and the file is a complete WAV
// payload of 44 + 88200 bytes.
func TestSpeakSavesToExplicitPath(t *testing.T) {
	format := wav.Format{Rate: 22050, Width: 2, Channels: 1}
	pcm := make([]byte, 2*format.ByteRate())

	c := testController(func(context.Context, SynthesisRequest) (wav.Format, []byte, error) {
		return format, pcm, nil
	})

	path := filepath.Join(t.TempDir(), "hello.wav")
	outcome, err := c.Speak(context.Background(), validRequest(), Options{OutputPath: path})
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if outcome.Delivery != player.DeliverySaved {
		t.Errorf("delivery = %v, want DeliverySaved", outcome.Delivery)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output file: %v", err)
	}
	if len(data) != 44+88200 {
		t.Errorf("file length = %d, want %d", len(data), 44+88200)
	}
	if string(data[0:4]) != "RIFF" {
		t.Error("output file is not a WAV payload")
	}
}

// TestSpeakServerError tests that a protocol failure aborts the pipeline
// with zero bytes delivered.
func TestSpeakServerError(t *testing.T) {
	c := testController(func(context.Context, SynthesisRequest) (wav.Format, []byte, error) {
		return wav.Format{}, nil, fmt.Errorf("%w: server: no model loaded", wyoming.ErrProtocol)
	})

	path := filepath.Join(t.TempDir(), "never.wav")
	_, err := c.Speak(context.Background(), validRequest(), Options{OutputPath: path})
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("Speak() error = %v, want ErrProtocol", err)
	}
	if !strings.Contains(err.Error(), "no model loaded") {
		t.Errorf("error %q does not surface the server message", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("no output may be written after a protocol error")
	}

	var perr *PipelineError
	if !errors.As(err, &perr) {
		t.Fatal("error should be a PipelineError")
	}
	if perr.Stage != StageSynth {
		t.Errorf("stage = %v, want %v", perr.Stage, StageSynth)
	}
	if !strings.Contains(err.Error(), "10.0.0.69:10200") {
		t.Errorf("error %q does not carry the server address", err)
	}
}

// TestSpeakInvalidRequest tests that validation fails before synthesis.
func TestSpeakInvalidRequest(t *testing.T) {
	c := testController(func(context.Context, SynthesisRequest) (wav.Format, []byte, error) {
		t.Error("synthesis must not run for an invalid request")
		return wav.Format{}, nil, nil
	})

	req := validRequest()
	req.Text = ""
	_, err := c.Speak(context.Background(), req, Options{})
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("Speak() error = %v, want ErrEmptyText", err)
	}
	if !IsUsageError(err) {
		t.Errorf("IsUsageError(%v) = false, want true", err)
	}
}

// TestSpeakInvalidServerFormat tests the defensive assembler guard against
// a nonsense format.
func TestSpeakInvalidServerFormat(t *testing.T) {
	c := testController(func(context.Context, SynthesisRequest) (wav.Format, []byte, error) {
		return wav.Format{Rate: 22050, Width: 0, Channels: 1}, []byte{0, 0}, nil
	})

	_, err := c.Speak(context.Background(), validRequest(), Options{})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("Speak() error = %v, want ErrInvalidFormat", err)
	}

	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Stage != StageAssemble {
		t.Errorf("error = %v, want assemble-stage PipelineError", err)
	}
}

// TestSpeakFallsBackToFile tests the degraded no-player outcome end to
// end.
func TestSpeakFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })

	c := testController(func(context.Context, SynthesisRequest) (wav.Format, []byte, error) {
		return wav.Format{Rate: 22050, Width: 2, Channels: 1}, []byte{1, 2, 3, 4}, nil
	})
	// no candidates at all: every delivery must degrade to a file
	c.dispatcher = player.NewDispatcher(
		player.WithCandidates(nil),
		player.WithLogger(log.New(io.Discard)),
	)

	outcome, err := c.Speak(context.Background(), validRequest(), Options{})
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if outcome.Delivery != player.DeliveryFellBack {
		t.Fatalf("delivery = %v, want DeliveryFellBack", outcome.Delivery)
	}
	if _, err := os.Stat(filepath.Join(dir, player.FallbackFileName)); err != nil {
		t.Errorf("fallback file missing: %v", err)
	}
}

// TestSpeakEmptyAudio tests that zero audio chunks still produce a valid,
// header-only WAV file.
func TestSpeakEmptyAudio(t *testing.T) {
	c := testController(func(context.Context, SynthesisRequest) (wav.Format, []byte, error) {
		return wav.Format{Rate: 22050, Width: 2, Channels: 1}, nil, nil
	})

	path := filepath.Join(t.TempDir(), "empty.wav")
	if _, err := c.Speak(context.Background(), validRequest(), Options{OutputPath: path}); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output file: %v", err)
	}
	if len(data) != wav.HeaderSize {
		t.Errorf("file length = %d, want header only (%d)", len(data), wav.HeaderSize)
	}
}
