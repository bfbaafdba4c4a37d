package wyoming

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/MattGrayYes/MGTTS/tts/wav"
)

// Transport errors. ErrProtocol covers everything the server did wrong
// after the connection succeeded.
var (
	ErrConnection    = errors.New("cannot connect to server")
	ErrTimeout       = errors.New("server did not respond in time")
	ErrProtocol      = errors.New("protocol error")
	ErrMissingFormat = fmt.Errorf("%w: missing audio format", ErrProtocol)
)

// DefaultTimeout bounds the dial and each event read.
const DefaultTimeout = 10 * time.Second

// Client performs synthesis exchanges against one Wyoming TTS server. The
// zero value is not usable; use NewClient.
type Client struct {
	addr    string
	timeout time.Duration
	logger  *log.Logger

	// dial is swapped out in tests
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the dial and per-event read timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for protocol event tracing.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the server at addr (host:port).
func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		addr:    addr,
		timeout: DefaultTimeout,
		logger:  log.New(os.Stderr),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dial == nil {
		c.dial = func(ctx context.Context, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: c.timeout}
			return d.DialContext(ctx, "tcp", addr)
		}
	}
	return c
}

// Synthesize sends text to the server and collects the streamed audio.
// It opens exactly one connection, sends one synthesize event, and reads
// response events until audio-stop. The returned format comes from the
// first event that declares one; a stream that never declares a format
// fails with ErrMissingFormat.
func (c *Client) Synthesize(ctx context.Context, text, model string, speaker int) (wav.Format, []byte, error) {
	var format wav.Format

	conn, err := c.dial(ctx, c.addr)
	if err != nil {
		if isTimeout(err) {
			return format, nil, fmt.Errorf("%w: %s", ErrTimeout, c.addr)
		}
		return format, nil, fmt.Errorf("%w: %s: %v", ErrConnection, c.addr, err)
	}
	defer conn.Close()

	// A cancelled context unblocks any pending read by closing the
	// connection out from under it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	req := Synthesize(text, model, speaker)
	if err := Write(conn, req); err != nil {
		return format, nil, fmt.Errorf("%w: send synthesize: %v", ErrConnection, err)
	}
	c.logger.Debug("sent event", "type", req.Type, "text", text, "model", model, "speaker", speaker)

	var (
		pcm         []byte
		chunks      int
		formatKnown bool
		reader      = bufio.NewReader(conn)
	)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return format, nil, fmt.Errorf("%w: %v", ErrConnection, err)
		}

		event, err := Read(reader)
		if err != nil {
			if ctx.Err() != nil {
				return format, nil, ctx.Err()
			}
			if isTimeout(err) {
				return format, nil, fmt.Errorf("%w: %s", ErrTimeout, c.addr)
			}
			return format, nil, fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		c.logger.Debug("received event", "type", event.Type, "data", event.Data, "payload_bytes", len(event.Payload))

		switch event.Type {
		case TypeAudioStart, TypeAudioChunk:
			if !formatKnown && event.Has("rate") {
				format = wav.Format{
					Rate:     event.Int("rate", 0),
					Width:    event.Int("width", 0),
					Channels: event.Int("channels", 0),
				}
				formatKnown = true
				c.logger.Debug("audio format declared",
					"rate", format.Rate, "width", format.Width, "channels", format.Channels)
			}
			if event.Type == TypeAudioChunk && len(event.Payload) > 0 {
				pcm = append(pcm, event.Payload...)
				chunks++
			}

		case TypeAudioStop:
			if !formatKnown {
				return wav.Format{}, nil, ErrMissingFormat
			}
			c.logger.Debug("audio complete", "chunks", chunks, "pcm_bytes", len(pcm))
			return format, pcm, nil

		case TypeError:
			return wav.Format{}, nil, fmt.Errorf("%w: server: %s", ErrProtocol, event.Message())

		default:
			// Unknown event types are skipped; the protocol may grow.
			c.logger.Debug("ignoring event", "type", event.Type)
		}
	}
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
