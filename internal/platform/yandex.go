package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/neuroair-core/internal/history"
)

// Alice replies.
const (
	YandexReplyHandled    = "Выполняю вашу команду"
	YandexReplyNotHandled = "Не поняла вашу команду"
	YandexReplyError      = "Произошла ошибка"
)

// YandexRequest is the subset of an Alice webhook request we read.
type YandexRequest struct {
	Version string          `json:"version"`
	Session json.RawMessage `json:"session"`
	Request struct {
		Command           string `json:"command"`
		OriginalUtterance string `json:"original_utterance"`
		Type              string `json:"type"`

		// Audio is a NeuroAIR extension carrying base64 audio for
		// skills that forward raw recordings.
		Audio string `json:"audio,omitempty"`
	} `json:"request"`
}

// YandexResponse is an Alice webhook response.
type YandexResponse struct {
	Version  string          `json:"version"`
	Session  json.RawMessage `json:"session,omitempty"`
	Response YandexReply     `json:"response"`
}

// YandexReply is the response body shown or spoken by Alice.
type YandexReply struct {
	Text       string `json:"text"`
	EndSession bool   `json:"end_session"`
}

// Yandex handles Yandex Alice skill webhooks.
type Yandex struct {
	engine Engine
	opts   Options
}

// NewYandex creates the Alice adapter.
func NewYandex(engine Engine, opts Options) *Yandex {
	return &Yandex{engine: engine, opts: opts}
}

// Name implements Adapter.
func (y *Yandex) Name() string { return history.SourceYandex }

// HandleRequest implements Adapter. Version and session are echoed back
// as Alice requires.
func (y *Yandex) HandleRequest(ctx context.Context, payload []byte) ([]byte, error) {
	var req YandexRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	resp := YandexResponse{Version: req.Version, Session: req.Session}
	resp.Response.Text = y.handle(ctx, req)
	return json.Marshal(resp)
}

func (y *Yandex) handle(ctx context.Context, req YandexRequest) string {
	text := strings.TrimSpace(req.Request.OriginalUtterance)
	if text == "" {
		text = req.Request.Command
	}

	stream, err := y.opts.voiceStream(ctx, text, req.Request.Audio)
	if err != nil {
		y.opts.logger().Error("yandex: preparing voice input failed", "error", err)
		return YandexReplyError
	}

	outcome, err := y.engine.DispatchStream(ctx, stream, y.Name())
	if err != nil {
		y.opts.logger().Error("yandex: dispatch failed", "error", err)
		return YandexReplyError
	}
	if outcome.Handled {
		return YandexReplyHandled
	}
	return YandexReplyNotHandled
}
