// Package platform adapts smart-home platforms to the NeuroAIR engine.
//
// Every adapter implements Adapter: it takes the platform's raw request
// body and returns the platform's raw response body. Adapters extract a
// recognition stream (text the platform already transcribed, or audio
// passed through a Recognizer), dispatch it, and map the Outcome and the
// current device state into the platform's own schema.
//
//	┌──────────────┐   ┌──────────┐   ┌──────────────┐
//	│ Yandex Alice │   │ Google   │   │ Home         │
//	│ webhook      │   │ Home     │   │ Assistant    │
//	└──────┬───────┘   └────┬─────┘   └──────┬───────┘
//	       └────────────────┼────────────────┘
//	                        ▼
//	                     Engine
//	          (DispatchStream, State, device ops)
//
// Supported:
//   - Yandex Alice: voice webhook, replies with a short Russian phrase
//   - Google Home: action.devices.SYNC, QUERY, EXECUTE and DISCONNECT
//   - Home Assistant: switch.neuroair and sensor.neuroair_emotion
//     entities plus turn_on, turn_off, set_profile, adjust_intensity and
//     process_audio services
package platform
