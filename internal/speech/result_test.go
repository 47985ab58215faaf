package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/nerrad567/neuroair-core/internal/scent"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Включи Ароматизатор", "включи ароматизатор"},
		{"  я   иду\tспать ", "я иду спать"},
		{"", ""},
		{"HELLO", "hello"},
		{"Спокои\u0306ствие", "спокойствие"},
		{"И\u0306ога", "йога"},
		{"Ещ\u0435\u0308", "ещё"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult("  Мне  ГРУСТНО ", "SAD", 1.7)
	if r.Text != "мне грустно" {
		t.Errorf("Text = %q", r.Text)
	}
	if r.Emotion != scent.EmotionSad {
		t.Errorf("Emotion = %q", r.Emotion)
	}
	if r.Confidence != 1 {
		t.Errorf("Confidence = %v, want clamped to 1", r.Confidence)
	}

	if got := NewResult("x", "unknown", -0.5); got.Emotion != scent.EmotionNeutral || got.Confidence != 0 {
		t.Errorf("NewResult fallback = %+v", got)
	}
	if got := NewResult("x", "", math.NaN()); got.Confidence != 0 {
		t.Errorf("NaN confidence = %v, want 0", got.Confidence)
	}
}

func TestResult_Normalized(t *testing.T) {
	r := Result{Text: " Доброе  Утро", Emotion: "HAPPY", Confidence: 0.8}.Normalized()
	want := Result{Text: "доброе утро", Emotion: scent.EmotionHappy, Confidence: 0.8}
	if r != want {
		t.Errorf("Normalized() = %+v, want %+v", r, want)
	}
}

func TestResult_DecodedUnknownEmotionIsNeutral(t *testing.T) {
	var r Result
	if err := json.Unmarshal([]byte(`{"text":"привет","emotion":"bewildered","confidence":0.9}`), &r); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got := r.Normalized().Emotion; got != scent.EmotionNeutral {
		t.Errorf("Normalized().Emotion = %q, want neutral", got)
	}
}

func TestSliceStream(t *testing.T) {
	ctx := context.Background()
	s := NewSliceStream(NewResult("a", "", 0.1), NewResult("b", "", 0.2))

	for _, want := range []string{"a", "b"} {
		r, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		if r.Text != want {
			t.Errorf("Next().Text = %q, want %q", r.Text, want)
		}
	}

	if _, err := s.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after end = %v, want io.EOF", err)
	}

	s.Reset()
	if r, err := s.Next(ctx); err != nil || r.Text != "a" {
		t.Errorf("after Reset: %+v, %v", r, err)
	}
}

func TestSliceStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := TextStream("a", "", 1).Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() = %v, want context.Canceled", err)
	}
}
