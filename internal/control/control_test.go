package control

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/orbitcam/internal/auth"
	"github.com/inamate/orbitcam/internal/capture"
	"github.com/inamate/orbitcam/internal/render"
	"github.com/inamate/orbitcam/internal/snapshot"
	"github.com/inamate/orbitcam/internal/typeid"
)

func testConfig() SessionConfig {
	return SessionConfig{
		Builder:         render.NewBuilder(1),
		Capturers:       capture.Factory(capture.Options{}),
		PreviewInterval: 5 * time.Millisecond,
		Initial: func() *snapshot.Snapshot {
			s := snapshot.Sample()
			s.NumFrames = 3
			s.VideoWidth = 32
			s.VideoHeight = 24
			s.OutputFormat = snapshot.FormatPNGSequence
			return s
		},
	}
}

func fakeClient(id string) *Client {
	return &Client{send: make(chan []byte, sendBuffer), frame: make(chan []byte, 1), ClientID: id, DisplayName: id}
}

// nextFrame waits for a frame with the given index.
func nextFrame(t *testing.T, c *Client, index int) (FrameHeader, []byte) {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case data := <-c.frame:
			h, img, err := DecodeFrame(data)
			require.NoError(t, err)
			if h.Index == index {
				return h, img
			}
		case <-timeout:
			t.Fatalf("timed out waiting for frame %d", index)
		}
	}
}

// next returns the first queued message of type typ, skipping others.
func next(t *testing.T, c *Client, typ string) *Message {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case data, ok := <-c.send:
			require.True(t, ok, "send queue closed waiting for %s", typ)
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == typ {
				return &msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
			return nil
		}
	}
}

func TestSessionWelcome(t *testing.T) {
	s := newSession("sess_test", testConfig())
	defer s.Close()

	a := fakeClient("cli_a")
	s.add(a)

	var welcome WelcomePayload
	require.NoError(t, json.Unmarshal(next(t, a, TypeWelcome).Payload, &welcome))
	assert.Equal(t, "sess_test", welcome.SessionID)
	assert.Equal(t, "cli_a", welcome.ClientID)
	assert.Equal(t, 3, welcome.Status.Total)
	assert.Empty(t, welcome.Peers)

	var cfg snapshot.Snapshot
	require.NoError(t, json.Unmarshal(next(t, a, TypeConfigState).Payload, &cfg))
	assert.Equal(t, 3, cfg.NumFrames)

	b := fakeClient("cli_b")
	s.add(b)
	join := next(t, a, TypePresenceJoin)
	assert.Contains(t, string(join.Payload), "cli_b")
	require.NoError(t, json.Unmarshal(next(t, b, TypeWelcome).Payload, &welcome))
	require.Len(t, welcome.Peers, 1)
	assert.Equal(t, "cli_a", welcome.Peers[0].ClientID)

	assert.False(t, s.remove(b))
	next(t, a, TypePresenceLeave)
	assert.True(t, s.remove(a))
}

func TestSessionSlotEditsBroadcastConfig(t *testing.T) {
	s := newSession("sess_test", testConfig())
	defer s.Close()
	a := fakeClient("cli_a")
	b := fakeClient("cli_b")
	s.add(a)
	s.add(b)
	next(t, a, TypeConfigState)
	next(t, b, TypeConfigState)

	s.handle(a, &Message{Type: TypeSlotAdd, Payload: json.RawMessage(`{"target":"figure"}`)})

	var cfg snapshot.Snapshot
	require.NoError(t, json.Unmarshal(next(t, b, TypeConfigState).Payload, &cfg))
	assert.Equal(t, 5, cfg.NumFigureActionSlots)
	assert.Len(t, cfg.FigureSegments, 5)

	s.handle(a, &Message{Type: TypeSlotResize, Payload: json.RawMessage(`{"target":"camera","count":2}`)})
	require.NoError(t, json.Unmarshal(next(t, b, TypeConfigState).Payload, &cfg))
	assert.Equal(t, 2, cfg.NumCameraActionSlots)
}

func TestSessionRejectsBadCommands(t *testing.T) {
	s := newSession("sess_test", testConfig())
	defer s.Close()
	a := fakeClient("cli_a")
	s.add(a)

	tests := []struct {
		msg  Message
		want string
	}{
		{Message{Type: "nope", Seq: 1}, "unknown message type"},
		{Message{Type: TypeScrub, Seq: 2}, "payload is required"},
		{Message{Type: TypeSlotRemove, Seq: 3, Payload: json.RawMessage(`{"target":"camera","index":9}`)}, ""},
		{Message{Type: TypeSlotAdd, Seq: 4, Payload: json.RawMessage(`{"target":"light"}`)}, "unknown target"},
		{Message{Type: TypeSlotSet, Seq: 5, Payload: json.RawMessage(`{"target":"camera","index":0}`)}, "segment is required"},
		{Message{Type: TypeConfigLoad, Seq: 6, Payload: json.RawMessage(`"text"`)}, "invalid configuration"},
		{Message{Type: TypeSlotResize, Seq: 7, Payload: json.RawMessage(`{"target":"camera","count":2000000000}`)}, "too many slots"},
		{Message{Type: TypeConfigUpdate, Seq: 8, Payload: json.RawMessage(`{"videoWidth":1073741824}`)}, "video size must be at most"},
		{Message{Type: TypeConfigLoad, Seq: 9, Payload: json.RawMessage(`{"numFrames":1000000000}`)}, "numFrames must be at most"},
	}
	for _, tt := range tests {
		msg := tt.msg
		s.handle(a, &msg)
		got := next(t, a, TypeError)
		var p ErrorPayload
		require.NoError(t, json.Unmarshal(got.Payload, &p))
		assert.Equal(t, tt.msg.Seq, p.Seq)
		assert.Contains(t, p.Message, tt.want)
	}
}

func TestSessionPreviewAndScrub(t *testing.T) {
	s := newSession("sess_test", testConfig())
	defer s.Close()
	a := fakeClient("cli_a")
	s.add(a)
	next(t, a, TypeWelcome)

	s.handle(a, &Message{Type: TypeScrub, Payload: json.RawMessage(`{"frame":2}`)})
	h, img := nextFrame(t, a, 2)
	assert.Equal(t, TypeFrame, h.Type)
	assert.Equal(t, 3, h.Total)
	assert.True(t, strings.HasPrefix(string(img), "\x89PNG"))

	s.handle(a, &Message{Type: TypePlay})
	for {
		var st struct {
			State string `json:"state"`
		}
		require.NoError(t, json.Unmarshal(next(t, a, TypeStatus).Payload, &st))
		if st.State == "previewing" {
			break
		}
	}
}

func TestFrameEncoding(t *testing.T) {
	data, err := EncodeFrame(FrameHeader{Index: 4, Total: 9}, []byte("png"))
	require.NoError(t, err)

	h, img, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, FrameHeader{Type: TypeFrame, Index: 4, Total: 9}, h)
	assert.Equal(t, "png", string(img))

	_, _, err = DecodeFrame([]byte{0, 0})
	assert.Error(t, err)
	_, _, err = DecodeFrame([]byte{0, 0, 1, 0, '{'})
	assert.Error(t, err)
}

func TestSendFrameKeepsNewest(t *testing.T) {
	c := fakeClient("cli_a")
	for i := 0; i < 5; i++ {
		c.SendFrame([]byte{byte(i)})
	}
	c.Send(&Message{Type: TypeStatus})

	assert.Equal(t, []byte{4}, <-c.frame)
	assert.Empty(t, c.frame, "older frames were replaced")
	assert.Len(t, c.send, 1, "control messages are not affected")
}

func TestSessionExport(t *testing.T) {
	s := newSession("sess_test", testConfig())
	defer s.Close()
	a := fakeClient("cli_a")
	s.add(a)
	next(t, a, TypeWelcome)

	s.handle(a, &Message{Type: TypeExportStart, Seq: 7})

	var done ExportDonePayload
	require.NoError(t, json.Unmarshal(next(t, a, TypeExportDone).Payload, &done))
	assert.Equal(t, 3, done.Frames)
	assert.Equal(t, "application/x-tar", done.ContentType)
	assert.True(t, strings.HasSuffix(done.Name, ".tar"))
	assert.NotEmpty(t, done.Data)
	assert.Empty(t, done.URL)
}

func TestHubWebSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(testConfig())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	r := mux.NewRouter()
	r.HandleFunc("/ws/session/{sessionId}", hub.ServeWS(auth.NewService("", true), []string{"*"}))
	srv := httptest.NewServer(r)
	defer srv.Close()

	sessionID := typeid.NewSessionID()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session/" + sessionID

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dialCancel()
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	require.NoError(t, err)
	conn.SetReadLimit(1 << 22)

	var frames []FrameHeader
	readType := func(typ string) Message {
		for {
			kind, data, err := conn.Read(dialCtx)
			require.NoError(t, err)
			if kind == websocket.MessageBinary {
				h, _, err := DecodeFrame(data)
				require.NoError(t, err)
				frames = append(frames, h)
				if typ == TypeFrame {
					return Message{Type: TypeFrame}
				}
				continue
			}
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == typ {
				return msg
			}
		}
	}

	welcome := readType(TypeWelcome)
	assert.Equal(t, sessionID, welcome.SessionID)
	assert.Equal(t, 1, hub.Len())

	require.NoError(t, wsjson.Write(dialCtx, conn, Message{Type: "bogus", Seq: 42}))
	errMsg := readType(TypeError)
	assert.Contains(t, string(errMsg.Payload), `"seq":42`)

	require.NoError(t, wsjson.Write(dialCtx, conn, Message{Type: TypeScrub, Payload: json.RawMessage(`{"frame":1}`)}))
	for len(frames) == 0 || frames[len(frames)-1].Index != 1 {
		readType(TypeFrame)
	}
	assert.Equal(t, TypeFrame, frames[len(frames)-1].Type)

	conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 10*time.Second, 10*time.Millisecond)

	cancel()
	<-hubDone
}

func TestServeWSRejectsBadSession(t *testing.T) {
	hub := NewHub(testConfig())
	r := mux.NewRouter()
	r.HandleFunc("/ws/session/{sessionId}", hub.ServeWS(auth.NewService("secret", false), nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/ws/session/proj_1", nil))
	assert.Equal(t, 400, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/ws/session/"+typeid.NewSessionID()+"?token=x", nil))
	assert.Equal(t, 401, rec.Code)
}
