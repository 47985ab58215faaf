package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nerrad567/neuroair-core/internal/speech"
)

// DispatchStream dispatches results from stream until one is handled,
// the stream ends or it fails.
//
// The returned Outcome is that of the handled result, or of the last
// result dispatched when none was handled. An empty stream yields a
// StageNone outcome. Streams implementing io.Closer are closed before
// returning.
//
// Errors:
//   - ErrSourceFailed wrapping the stream error when Next fails with
//     anything but io.EOF; earlier effects are kept
//   - action errors from the handled result, as returned by DispatchFrom
func (d *Dispatcher) DispatchStream(ctx context.Context, stream speech.Stream, source string) (Outcome, error) {
	if c, ok := stream.(io.Closer); ok {
		defer c.Close() //nolint:errcheck // best-effort close of a finished stream
	}

	outcome := Outcome{Stage: StageNone}
	seen := false
	for {
		result, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			if !seen {
				outcome.State = d.controller.State()
			}
			return outcome, nil
		}
		if err != nil {
			if !seen {
				outcome.State = d.controller.State()
			}
			return outcome, fmt.Errorf("%w: %w", ErrSourceFailed, err)
		}

		seen = true
		var dispatchErr error
		outcome, dispatchErr = d.DispatchFrom(ctx, source, result)
		if outcome.Handled {
			return outcome, dispatchErr
		}
	}
}
