// Package dispatch resolves recognised speech into device actions.
//
// One recognition result goes through three stages. The first stage that
// matches wins and later stages are skipped:
//
//	result ──► command match ──► run action ──────────┐
//	      └──► scene match ───► run every action ─────┤
//	      └──► confidence > threshold ────────────────┤
//	      └──► not handled (state untouched)          ▼
//	                                       emotion adaptation
//
// After a command or scene the emotion adaptation always runs. A result
// that matches nothing but was recognised confidently only gets the
// adaptation. Anything else is reported as not handled.
//
// Calls to Dispatch are serialised by the Dispatcher, so resolution and
// the resulting state change are atomic with respect to each other.
// Every dispatch is recorded to the history repository and the metrics
// writer when configured, and announced to registered listeners.
//
// # Usage
//
//	d, err := dispatch.New(dispatch.Config{Threshold: 0.7}, registry, resolver, controller)
//	d.SetHistory(historyRepo)
//	outcome, err := d.DispatchStream(ctx, speech.TextStream("включи аромат", "happy", 0.9), history.SourceAPI)
package dispatch
