package speech

import (
	"context"
	"io"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/nerrad567/neuroair-core/internal/scent"
)

// Result is one recognised fragment: text, detected emotion and the
// recogniser's confidence.
type Result struct {
	Text       string        `json:"text"`
	Emotion    scent.Emotion `json:"emotion"`
	Confidence float64       `json:"confidence"`
}

// NewResult builds a Result with normalised text, a parsed emotion and a
// confidence clamped to [0,1].
func NewResult(text, emotion string, confidence float64) Result {
	return Result{
		Text:       Normalize(text),
		Emotion:    scent.ParseEmotion(emotion),
		Confidence: clampConfidence(confidence),
	}
}

// Normalized returns r with text, emotion and confidence normalised.
// Results decoded straight from JSON go through this before dispatch.
func (r Result) Normalized() Result {
	return Result{
		Text:       Normalize(r.Text),
		Emotion:    scent.ParseEmotion(string(r.Emotion)),
		Confidence: clampConfidence(r.Confidence),
	}
}

// Normalize composes text to NFC, lowercases it and collapses whitespace
// so that substring triggers match regardless of spacing, case or how a
// recogniser encoded letters such as "й" and "ё".
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFC.String(text))), " ")
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// Stream is a finite sequence of results for one utterance.
//
// Next returns io.EOF after the last result. Any other error means the
// upstream source failed and the stream must not be read further.
type Stream interface {
	Next(ctx context.Context) (Result, error)
}

// SliceStream replays a fixed list of results.
type SliceStream struct {
	results []Result
	pos     int
}

// NewSliceStream returns a stream over results.
func NewSliceStream(results ...Result) *SliceStream {
	return &SliceStream{results: results}
}

// TextStream is a one-result stream for an already transcribed utterance.
func TextStream(text, emotion string, confidence float64) *SliceStream {
	return NewSliceStream(NewResult(text, emotion, confidence))
}

// Next implements Stream.
func (s *SliceStream) Next(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if s.pos >= len(s.results) {
		return Result{}, io.EOF
	}
	r := s.results[s.pos]
	s.pos++
	return r, nil
}

// Reset rewinds the stream so it can be replayed.
func (s *SliceStream) Reset() {
	s.pos = 0
}
