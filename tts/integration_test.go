package tts_test

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/MattGrayYes/MGTTS/tts"
	"github.com/MattGrayYes/MGTTS/tts/wyoming"
)

// serveOnce runs a scripted Wyoming server for a single connection and
// returns its address.
func serveOnce(t *testing.T, serve func(conn net.Conn)) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// TestSpeakAgainstScriptedServer tests the whole stack over real TCP:
// request in, WAV file out, nothing else touched.
func TestSpeakAgainstScriptedServer(t *testing.T) {
	pcm := make([]byte, 22050*2*2) // two seconds, 16-bit mono
	host, port := serveOnce(t, func(conn net.Conn) {
		if _, err := wyoming.Read(bufio.NewReader(conn)); err != nil {
			return
		}
		format := map[string]any{"rate": 22050, "width": 2, "channels": 1}
		_ = wyoming.Write(conn, wyoming.Event{Type: wyoming.TypeAudioStart, Data: format})
		_ = wyoming.Write(conn, wyoming.Event{Type: wyoming.TypeAudioChunk, Payload: pcm})
		_ = wyoming.Write(conn, wyoming.Event{Type: wyoming.TypeAudioStop})
	})

	req := tts.SynthesisRequest{Host: host, Port: port, Text: "Hello World"}
	path := filepath.Join(t.TempDir(), "speech.wav")

	outcome, err := tts.NewController(log.New(io.Discard)).Speak(context.Background(), req, tts.Options{OutputPath: path})
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if outcome.Path != path {
		t.Errorf("outcome path = %q, want %q", outcome.Path, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) != 44+len(pcm) {
		t.Errorf("file length = %d, want %d", len(data), 44+len(pcm))
	}
}

// TestSpeakServerErrorOverTCP tests that a scripted error event reaches
// the caller as a protocol error.
func TestSpeakServerErrorOverTCP(t *testing.T) {
	host, port := serveOnce(t, func(conn net.Conn) {
		if _, err := wyoming.Read(bufio.NewReader(conn)); err != nil {
			return
		}
		_ = wyoming.Write(conn, wyoming.Event{
			Type: wyoming.TypeError,
			Data: map[string]any{"text": "synthesis backend crashed"},
		})
	})

	req := tts.SynthesisRequest{Host: host, Port: port, Text: "Hello World"}
	_, err := tts.NewController(log.New(io.Discard)).Speak(context.Background(), req, tts.Options{
		OutputPath: filepath.Join(t.TempDir(), "never.wav"),
	})
	if !errors.Is(err, tts.ErrProtocol) {
		t.Fatalf("Speak() error = %v, want ErrProtocol", err)
	}
}

// TestSpeakConnectionRefused tests the fatal transport error with a real
// refused connection.
func TestSpeakConnectionRefused(t *testing.T) {
	// grab a port with nothing listening on it
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	req := tts.SynthesisRequest{Host: addr.IP.String(), Port: addr.Port, Text: "Hello World"}
	_, err = tts.NewController(log.New(io.Discard)).Speak(context.Background(), req, tts.Options{})
	if !errors.Is(err, tts.ErrConnection) {
		t.Errorf("Speak() error = %v, want ErrConnection", err)
	}
}
