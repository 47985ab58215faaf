package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/neuroair-core/internal/history"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/neuroair-core/internal/speech"
)

const recognitionTimeout = 30 * time.Second

// RecognitionMessage is the payload on neuroair/recognition/{device}.
// Either Results or the inline single result is used.
type RecognitionMessage struct {
	speech.Result
	Results []speech.Result `json:"results,omitempty"`
}

// HandleRecognition is an mqtt.MessageHandler for recognition topics.
//
// The payload is a single result object, an object with a "results"
// array, or a bare array of results. All results form one utterance.
func (d *Dispatcher) HandleRecognition(topic string, payload []byte) error {
	deviceID, ok := mqtt.DeviceFromTopic(topic)
	if !ok || deviceID != d.controller.DeviceID() {
		return fmt.Errorf("%w: topic %q", ErrUnknownDevice, topic)
	}

	results, err := DecodeRecognition(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), recognitionTimeout)
	defer cancel()

	_, err = d.DispatchStream(ctx, speech.NewSliceStream(results...), history.SourceMQTT)
	return err
}

// DecodeRecognition parses a recognition payload into the results of one
// utterance.
func DecodeRecognition(payload []byte) ([]speech.Result, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidMessage)
	}

	if trimmed[0] == '[' {
		var results []speech.Result
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		return results, nil
	}

	var msg RecognitionMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if len(msg.Results) > 0 {
		return msg.Results, nil
	}
	return []speech.Result{msg.Result}, nil
}
