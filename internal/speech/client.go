package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client defaults.
const (
	defaultLanguage       = "ru"
	defaultSessionTimeout = 30 * time.Second
	audioChunkSize        = 32 * 1024
)

// Message types exchanged with the audio processor.
const (
	msgTypeSettings = "settings"
	msgTypeEnd      = "end"
	msgTypeResult   = "result"
	msgTypeDone     = "done"
	msgTypeError    = "error"
)

// Logger is the logging interface used by Client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL is the audio processor's streaming endpoint (ws:// or wss://).
	URL string

	// Language is the transcription language code. Default: "ru".
	Language string

	// SessionTimeout bounds a whole recognition session. Default: 30s.
	SessionTimeout time.Duration

	// Header is sent with the WebSocket handshake (e.g. Authorization).
	Header http.Header
}

// Client streams audio to the external audio processor over a WebSocket
// and reads back recognition results with detected emotions.
//
// Protocol (JSON text frames unless noted):
//
//	→ {"type":"settings","mode":"stt","emotional":true,"language":"ru","prioritize_commands":true}
//	→ binary frames with raw audio
//	→ {"type":"end"}
//	← {"type":"result","text":"...","emotion":"happy","confidence":0.93}   (repeated)
//	← {"type":"done"}  or  {"type":"error","message":"..."}
//
// Thread Safety: a Client may start concurrent sessions; each returned
// stream must be used by a single goroutine.
type Client struct {
	cfg    ClientConfig
	dialer *websocket.Dialer
	logger Logger
}

// NewClient creates a Client for the given configuration.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = defaultSessionTimeout
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

type settingsMessage struct {
	Type               string `json:"type"`
	Mode               string `json:"mode"`
	FormatOutput       string `json:"format_output"`
	Emotional          bool   `json:"emotional"`
	Language           string `json:"language"`
	PrioritizeCommands bool   `json:"prioritize_commands"`
}

type controlMessage struct {
	Type string `json:"type"`
}

type serverMessage struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
}

// Recognize opens a session, uploads audio in the background and returns
// a stream of results. The caller must Close the stream.
func (c *Client) Recognize(ctx context.Context, audio io.Reader) (*WSStream, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck // handshake body is unused
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessorUnavailable, err)
	}

	settings := settingsMessage{
		Type:               msgTypeSettings,
		Mode:               "stt",
		FormatOutput:       "json",
		Emotional:          true,
		Language:           c.cfg.Language,
		PrioritizeCommands: true,
	}
	if err := conn.WriteJSON(settings); err != nil {
		conn.Close() //nolint:errcheck // best effort on error path
		return nil, fmt.Errorf("%w: sending settings: %w", ErrProcessorUnavailable, err)
	}

	s := &WSStream{
		conn:     conn,
		deadline: time.Now().Add(c.cfg.SessionTimeout),
		logger:   c.logger,
		upload:   make(chan error, 1),
	}
	go s.uploadAudio(audio)

	return s, nil
}

// WSStream is the Stream of a single audio processor session.
type WSStream struct {
	conn     *websocket.Conn
	deadline time.Time
	logger   Logger

	writeMu sync.Mutex
	upload  chan error

	closeOnce sync.Once
	done      bool
}

// uploadAudio sends audio as binary frames followed by the end marker.
func (s *WSStream) uploadAudio(audio io.Reader) {
	buf := make([]byte, audioChunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			if werr := s.write(websocket.BinaryMessage, buf[:n]); werr != nil {
				s.upload <- werr
				return
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.upload <- fmt.Errorf("reading audio: %w", err)
			return
		}
	}

	end, _ := json.Marshal(controlMessage{Type: msgTypeEnd}) //nolint:errcheck // static struct
	s.upload <- s.write(websocket.TextMessage, end)
}

func (s *WSStream) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

// Next implements Stream.
func (s *WSStream) Next(ctx context.Context) (Result, error) {
	if s.done {
		return Result{}, io.EOF
	}

	select {
	case err := <-s.upload:
		if err != nil {
			return Result{}, fmt.Errorf("%w: uploading audio: %w", ErrUpstream, err)
		}
	default:
	}

	deadline := s.deadline
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	var msg serverMessage
	if err := s.conn.ReadJSON(&msg); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			s.done = true
			return Result{}, io.EOF
		}
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	switch msg.Type {
	case msgTypeResult:
		s.logger.Debug("recognition result received",
			"text", msg.Text,
			"emotion", msg.Emotion,
			"confidence", msg.Confidence,
		)
		return NewResult(msg.Text, msg.Emotion, msg.Confidence), nil
	case msgTypeDone:
		s.done = true
		return Result{}, io.EOF
	case msgTypeError:
		return Result{}, fmt.Errorf("%w: %s", ErrUpstream, msg.Message)
	default:
		return Result{}, fmt.Errorf("%w: unexpected message type %q", ErrProtocol, msg.Type)
	}
}

// Close ends the session.
func (s *WSStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		//nolint:errcheck // best-effort close handshake
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}
