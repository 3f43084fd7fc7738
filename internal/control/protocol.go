package control

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/orbitcam/internal/engine"
	"github.com/inamate/orbitcam/internal/segment"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client to server
	TypePlay         = "preview.play"
	TypePause        = "preview.pause"
	TypeToggle       = "preview.toggle"
	TypeStop         = "preview.stop"
	TypeScrub        = "preview.scrub"
	TypeSlotAdd      = "slot.add"
	TypeSlotRemove   = "slot.remove"
	TypeSlotSet      = "slot.set"
	TypeSlotResize   = "slot.resize"
	TypeConfigLoad   = "config.load"
	TypeConfigUpdate = "config.update"
	TypeExportStart  = "export.start"
	TypeExportStop   = "export.stop"

	// Server to client
	TypeWelcome       = "welcome"
	TypeFrame         = "frame" // binary, see EncodeFrame
	TypeStatus        = "status"
	TypeExportDone    = "export.done"
	TypeError         = "error"
	TypeConfigState   = "config.state"
	TypePresenceJoin  = "presence.join"
	TypePresenceLeave = "presence.leave"
)

// --- Inbound payloads ---

type ScrubPayload struct {
	Frame int `json:"frame"`
}

type SlotPayload struct {
	Target  segment.Target      `json:"target"`
	Index   int                 `json:"index"`
	Segment *segment.RawSegment `json:"segment,omitempty"`
	Count   int                 `json:"count,omitempty"`
}

// config.load carries a configuration document; config.update carries an
// engine.SettingsPatch.

// --- Outbound payloads ---

type Peer struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
}

type WelcomePayload struct {
	SessionID string        `json:"sessionId"`
	ClientID  string        `json:"clientId"`
	Status    engine.Status `json:"status"`
	Peers     []Peer        `json:"peers"`
}

// FrameHeader describes a preview frame. Frames travel as binary messages:
// a 4-byte big-endian header length, the JSON header, then the PNG.
type FrameHeader struct {
	Type  string                `json:"type"`
	Index int                   `json:"index"`
	Total int                   `json:"total"`
	State engine.AnimationState `json:"state"`
}

var errShortFrame = errors.New("frame message too short")

// EncodeFrame builds the binary frame message for h and a PNG image.
func EncodeFrame(h FrameHeader, image []byte) ([]byte, error) {
	h.Type = TypeFrame
	header, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4, 4+len(header)+len(image))
	binary.BigEndian.PutUint32(out, uint32(len(header)))
	out = append(out, header...)
	return append(out, image...), nil
}

// DecodeFrame splits a binary frame message.
func DecodeFrame(data []byte) (FrameHeader, []byte, error) {
	var h FrameHeader
	if len(data) < 4 {
		return h, nil, errShortFrame
	}
	n := int(binary.BigEndian.Uint32(data))
	if n > len(data)-4 {
		return h, nil, errShortFrame
	}
	if err := json.Unmarshal(data[4:4+n], &h); err != nil {
		return h, nil, fmt.Errorf("frame header: %w", err)
	}
	return h, data[4+n:], nil
}

type ExportDonePayload struct {
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Frames      int       `json:"frames"`
	Size        int       `json:"size"`
	URL         string    `json:"url,omitempty"`
	Data        []byte    `json:"data,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	// Seq of the request that failed, if any
	Seq int64 `json:"seq,omitempty"`
}

func newMessage(typ string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
