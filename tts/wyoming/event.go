// Package wyoming speaks the client side of the Wyoming protocol: events
// framed as a newline-terminated JSON header, an optional JSON data block,
// and an optional binary payload. The framing is a fixed external contract
// and must be matched byte-for-byte.
package wyoming

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Event types used in the synthesis exchange.
const (
	TypeSynthesize = "synthesize"
	TypeAudioStart = "audio-start"
	TypeAudioChunk = "audio-chunk"
	TypeAudioStop  = "audio-stop"
	TypeError      = "error"
)

// Event is one Wyoming protocol event. Data holds the merged contents of
// the header's inline data object and the supplementary data block.
type Event struct {
	Type    string
	Data    map[string]any
	Payload []byte
}

// header is the wire form of the JSON line that starts every event.
type header struct {
	Type          string         `json:"type"`
	Data          map[string]any `json:"data,omitempty"`
	DataLength    int            `json:"data_length,omitempty"`
	PayloadLength int            `json:"payload_length,omitempty"`
}

// SynthesizeVoice selects the voice for a synthesize event.
type SynthesizeVoice struct {
	Name    string `json:"name,omitempty"`
	Speaker int    `json:"speaker,omitempty"`
}

// Synthesize builds a synthesize request event for the given text. A voice
// block is only attached when a model was actually requested.
func Synthesize(text, model string, speaker int) Event {
	data := map[string]any{"text": text}
	if model != "" || speaker > 0 {
		data["voice"] = SynthesizeVoice{Name: model, Speaker: speaker}
	}
	return Event{Type: TypeSynthesize, Data: data}
}

// IsError reports whether the event is a server error event.
func (e Event) IsError() bool {
	return e.Type == TypeError
}

// Message returns the human-readable message of an error event.
func (e Event) Message() string {
	for _, key := range []string{"text", "message"} {
		if s, ok := e.Data[key].(string); ok && s != "" {
			return s
		}
	}
	return "unknown server error"
}

// Int returns the named data field as an int, or def when absent. JSON
// numbers decode as float64, so a conversion is always needed.
func (e Event) Int(key string, def int) int {
	switch v := e.Data[key].(type) {
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

// Has reports whether the named data field is present.
func (e Event) Has(key string) bool {
	_, ok := e.Data[key]
	return ok
}

// Write frames the event onto w: JSON header line, then the payload.
func Write(w io.Writer, e Event) error {
	h := header{Type: e.Type, Data: e.Data, PayloadLength: len(e.Payload)}
	line, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal event header: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.Write(line); err != nil {
		return fmt.Errorf("write event header: %w", err)
	}
	if len(e.Payload) > 0 {
		if _, err := w.Write(e.Payload); err != nil {
			return fmt.Errorf("write event payload: %w", err)
		}
	}
	return nil
}

// Read parses one event from r. The header line is read up to the newline,
// then the data block and payload are read exactly to their declared
// lengths.
func Read(r *bufio.Reader) (Event, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return Event{}, fmt.Errorf("read event header: %w", err)
	}

	var h header
	if err := json.Unmarshal(line, &h); err != nil {
		return Event{}, fmt.Errorf("malformed event header: %w", err)
	}
	if h.Type == "" {
		return Event{}, fmt.Errorf("malformed event header: missing type")
	}

	e := Event{Type: h.Type, Data: h.Data}
	if e.Data == nil {
		e.Data = map[string]any{}
	}

	// Supplementary data block, merged over the inline data.
	if h.DataLength > 0 {
		block := make([]byte, h.DataLength)
		if _, err := io.ReadFull(r, block); err != nil {
			return Event{}, fmt.Errorf("read event data block: %w", err)
		}
		extra := map[string]any{}
		if err := json.Unmarshal(block, &extra); err != nil {
			return Event{}, fmt.Errorf("malformed event data block: %w", err)
		}
		for k, v := range extra {
			e.Data[k] = v
		}
	}

	if h.PayloadLength > 0 {
		e.Payload = make([]byte, h.PayloadLength)
		if _, err := io.ReadFull(r, e.Payload); err != nil {
			return Event{}, fmt.Errorf("read event payload: %w", err)
		}
	}

	return e, nil
}
