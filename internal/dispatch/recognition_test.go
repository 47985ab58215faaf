package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/neuroair-core/internal/history"
)

func TestHandleRecognition(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantOn  bool
	}{
		{"single result", `{"text":"Включи ароматизатор","emotion":"NEUTRAL","confidence":0.9}`, true},
		{"results object", `{"results":[{"text":"ммм"},{"text":"включи аромат"}]}`, true},
		{"bare array", `[{"text":"ммм","confidence":0.1},{"text":"включи аромат"}]`, true},
		{"unhandled", `{"text":"привет","emotion":"happy","confidence":0.2}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, nil)
			repo := &memoryHistory{}
			env.dispatcher.SetHistory(repo)

			if err := env.dispatcher.HandleRecognition("neuroair/recognition/neuroair-1", []byte(tt.payload)); err != nil {
				t.Fatalf("HandleRecognition() error = %v", err)
			}
			if env.controller.State().PoweredOn != tt.wantOn {
				t.Errorf("PoweredOn = %v, want %v", env.controller.State().PoweredOn, tt.wantOn)
			}
			records, _ := repo.List(context.Background(), "neuroair-1", 10)
			if len(records) == 0 || records[0].Source != history.SourceMQTT {
				t.Errorf("records = %+v, want mqtt source", records)
			}
		})
	}
}

func TestHandleRecognition_Errors(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	if err := env.dispatcher.HandleRecognition("neuroair/recognition/other", []byte(`{"text":"x"}`)); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("other device = %v, want ErrUnknownDevice", err)
	}
	if err := env.dispatcher.HandleRecognition("neuroair/recognition/neuroair-1", []byte(`{not json`)); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("bad json = %v, want ErrInvalidMessage", err)
	}
	if err := env.dispatcher.HandleRecognition("neuroair/recognition/neuroair-1", []byte("  ")); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("empty payload = %v, want ErrInvalidMessage", err)
	}
}
