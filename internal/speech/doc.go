// Package speech defines recognition results and the streams that carry
// them into the dispatcher.
//
// A Stream yields one Result per recognised fragment of an utterance and
// returns io.EOF when the utterance ends. Sources:
//
//   - SliceStream: pre-recognised text (platform requests that already
//     carry a transcript)
//   - Client: WebSocket session with the external audio processor, which
//     performs speech-to-text and emotion detection
//
// The package does not capture or decode audio itself.
package speech
