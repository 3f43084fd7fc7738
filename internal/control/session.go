package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/orbitcam/internal/artifact"
	"github.com/inamate/orbitcam/internal/capture"
	"github.com/inamate/orbitcam/internal/engine"
	"github.com/inamate/orbitcam/internal/segment"
	"github.com/inamate/orbitcam/internal/snapshot"
)

// SessionConfig is shared by every session a hub creates.
type SessionConfig struct {
	Builder         engine.SceneBuilder
	Capturers       engine.CapturerFactory
	PreviewInterval time.Duration
	PreviewWidth    int
	PreviewHeight   int
	// Artifacts, when set, receives finished exports; clients get a URL
	// instead of the file contents.
	Artifacts *artifact.Store
	// Initial is loaded into new sessions. Nil means snapshot.Default.
	Initial func() *snapshot.Snapshot
}

// Session is one animation being edited. It owns a Controller and the event
// loop that serializes every call into it.
type Session struct {
	ID string

	cfg    SessionConfig
	loop   *engine.EventLoop
	ctrl   *engine.Controller
	cancel context.CancelFunc
	frames chan engine.FrameInfo
	wg     sync.WaitGroup

	mu      sync.RWMutex
	clients map[string]*Client // clientID -> client
}

func newSession(id string, cfg SessionConfig) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:      id,
		cfg:     cfg,
		loop:    engine.NewEventLoop(),
		cancel:  cancel,
		frames:  make(chan engine.FrameInfo, 1),
		clients: make(map[string]*Client),
	}
	s.ctrl = engine.NewController(s.loop, cfg.Builder, cfg.Capturers, engine.Options{
		PreviewInterval: cfg.PreviewInterval,
		PreviewWidth:    cfg.PreviewWidth,
		PreviewHeight:   cfg.PreviewHeight,
		Hooks: engine.Hooks{
			OnFrame:  s.onFrame,
			OnStatus: s.onStatus,
			OnExport: s.onExport,
			OnError:  s.onError,
		},
	})

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.loop.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.encodeFrames(ctx)
	}()

	initial := snapshot.Default()
	if cfg.Initial != nil {
		initial = cfg.Initial()
	}
	s.loop.Post(func() {
		if err := s.ctrl.Load(initial); err != nil {
			s.onError(err)
		}
	})
	return s
}

// Close stops the controller and waits for the session goroutines.
func (s *Session) Close() {
	_ = s.loop.Do(context.Background(), s.ctrl.Close)
	s.cancel()
	s.wg.Wait()
}

// Len returns the number of connected clients.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// --- Clients ---

func (s *Session) add(c *Client) {
	s.mu.Lock()
	peers := make([]Peer, 0, len(s.clients))
	for _, other := range s.clients {
		peers = append(peers, Peer{ClientID: other.ClientID, DisplayName: other.DisplayName})
	}
	s.clients[c.ClientID] = c
	s.mu.Unlock()

	s.broadcast(mustMessage(TypePresenceJoin, Peer{ClientID: c.ClientID, DisplayName: c.DisplayName}), c.ClientID)

	// Welcome and state are read on the loop so they match what the
	// controller broadcasts next.
	s.loop.Post(func() {
		s.sendTo(c.ClientID, mustMessage(TypeWelcome, WelcomePayload{
			SessionID: s.ID,
			ClientID:  c.ClientID,
			Status:    s.ctrl.Status(),
			Peers:     peers,
		}))
		s.sendTo(c.ClientID, mustMessage(TypeConfigState, s.ctrl.Snapshot()))
	})
}

// remove detaches c and closes its send queue. It reports whether the
// session is now empty.
func (s *Session) remove(c *Client) bool {
	s.mu.Lock()
	if _, ok := s.clients[c.ClientID]; ok {
		delete(s.clients, c.ClientID)
		close(c.send)
	}
	empty := len(s.clients) == 0
	s.mu.Unlock()

	if !empty {
		s.broadcast(mustMessage(TypePresenceLeave, Peer{ClientID: c.ClientID, DisplayName: c.DisplayName}), "")
	}
	return empty
}

func (s *Session) broadcast(msg *Message, excludeClientID string) {
	if msg == nil {
		return
	}
	msg.SessionID = s.ID
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, c := range s.clients {
		if id != excludeClientID {
			c.Send(msg)
		}
	}
}

func (s *Session) sendTo(clientID string, msg *Message) {
	if msg == nil {
		return
	}
	msg.SessionID = s.ID
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[clientID]; ok {
		c.Send(msg)
	}
}

// --- Commands ---

// handle queues msg for the controller. Replies that concern only the
// sender are addressed to it; state changes go to everyone.
func (s *Session) handle(sender *Client, msg *Message) {
	s.loop.Post(func() {
		if err := s.dispatch(msg); err != nil {
			slog.Debug("command rejected", "type", msg.Type, "session", s.ID, "error", err)
			s.sendTo(sender.ClientID, mustMessage(TypeError, ErrorPayload{Message: err.Error(), Seq: msg.Seq}))
		}
	})
}

var errUnknownType = errors.New("unknown message type")

func (s *Session) dispatch(msg *Message) error {
	switch msg.Type {
	case TypePlay:
		s.ctrl.Play()
	case TypePause:
		s.ctrl.Pause()
	case TypeToggle:
		s.ctrl.TogglePlay()
	case TypeStop:
		s.ctrl.Stop()
	case TypeScrub:
		var p ScrubPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		s.ctrl.Scrub(p.Frame)
	case TypeSlotAdd, TypeSlotRemove, TypeSlotSet, TypeSlotResize:
		if err := s.editSlots(msg); err != nil {
			return err
		}
		s.broadcastConfig()
	case TypeConfigLoad:
		snap, err := snapshot.Decode(msg.Payload)
		if err != nil {
			return err
		}
		if err := s.ctrl.Load(snap); err != nil {
			return err
		}
		s.broadcastConfig()
	case TypeConfigUpdate:
		var p engine.SettingsPatch
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if err := s.ctrl.ApplySettings(p); err != nil {
			return err
		}
		s.broadcastConfig()
	case TypeExportStart:
		return s.ctrl.StartRecording()
	case TypeExportStop:
		s.ctrl.StopRecording()
	default:
		return fmt.Errorf("%w: %s", errUnknownType, msg.Type)
	}
	return nil
}

func (s *Session) editSlots(msg *Message) error {
	var p SlotPayload
	if err := decode(msg.Payload, &p); err != nil {
		return err
	}
	if p.Target != segment.Figure && p.Target != segment.Camera {
		return fmt.Errorf("unknown target %q", p.Target)
	}

	switch msg.Type {
	case TypeSlotAdd:
		_, err := s.ctrl.AddSlot(p.Target)
		return err
	case TypeSlotRemove:
		return s.ctrl.RemoveSlot(p.Target, p.Index)
	case TypeSlotSet:
		if p.Segment == nil {
			return errors.New("segment is required")
		}
		return s.ctrl.SetSlot(p.Target, p.Index, *p.Segment)
	default:
		if p.Count < 0 {
			return fmt.Errorf("count must not be negative, got %d", p.Count)
		}
		return s.ctrl.ResizeSlots(p.Target, p.Count)
	}
}

func (s *Session) broadcastConfig() {
	s.broadcast(mustMessage(TypeConfigState, s.ctrl.Snapshot()), "")
}

// --- Controller hooks (loop goroutine) ---

func (s *Session) onFrame(f engine.FrameInfo) {
	if f.Image == nil {
		return
	}
	f.Image = capture.CloneRGBA(f.Image)
	// Keep only the newest frame when the encoder falls behind
	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- f:
	default:
	}
}

func (s *Session) onStatus(st engine.Status) {
	s.broadcast(mustMessage(TypeStatus, st), "")
}

func (s *Session) onError(err error) {
	slog.Warn("session error", "session", s.ID, "error", err)
	s.broadcast(mustMessage(TypeError, ErrorPayload{Message: err.Error()}), "")
}

func (s *Session) onExport(e engine.Export) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		p := ExportDonePayload{
			Name:        e.Name,
			ContentType: e.ContentType,
			Frames:      e.Frames,
			Size:        len(e.Data),
			CompletedAt: time.Now().UTC(),
		}
		if s.cfg.Artifacts != nil {
			a, err := s.cfg.Artifacts.Save(e.Name, e.ContentType, e.Data)
			if err != nil {
				s.onError(fmt.Errorf("store export: %w", err))
				return
			}
			p.URL = a.URL
		} else {
			p.Data = e.Data
		}
		slog.Info("export finished", "session", s.ID, "name", e.Name, "frames", e.Frames)
		s.broadcast(mustMessage(TypeExportDone, p), "")
	}()
}

func (s *Session) encodeFrames(ctx context.Context) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.frames:
			buf.Reset()
			if err := enc.Encode(&buf, f.Image); err != nil {
				slog.Error("encode preview frame", "error", err)
				continue
			}
			data, err := EncodeFrame(FrameHeader{Index: f.Index, Total: f.Total, State: f.State}, buf.Bytes())
			if err != nil {
				slog.Error("encode frame header", "error", err)
				continue
			}
			s.broadcastFrame(data)
		}
	}
}

// broadcastFrame hands one shared frame message to every client.
func (s *Session) broadcastFrame(data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.SendFrame(data)
	}
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return errors.New("payload is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func mustMessage(typ string, payload interface{}) *Message {
	msg, err := newMessage(typ, payload)
	if err != nil {
		slog.Error("marshal message", "type", typ, "error", err)
		return nil
	}
	return msg
}
