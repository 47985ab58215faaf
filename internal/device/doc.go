// Package device owns the state of a NeuroAIR scent appliance.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                        Controller                            │
//	│                                                              │
//	│  ┌────────────────┐   ┌────────────────┐   ┌──────────────┐  │
//	│  │     State      │   │   Scheduler    │   │   Catalog    │  │
//	│  │ on/off,profile │   │ sleep routine  │   │ (scent pkg)  │  │
//	│  │   intensity    │   │ timer + token  │   │              │  │
//	│  └────────────────┘   └────────────────┘   └──────────────┘  │
//	│           │                                                  │
//	└───────────│──────────────────────────────────────────────────┘
//	            │ optimistic update, then
//	            ▼
//	┌──────────────────────┐      ┌──────────────────────────────┐
//	│  Driver (MQTT, log)  │      │ Observers (WebSocket, MQTT   │
//	│                      │      │ retained state, metrics)     │
//	└──────────────────────┘      └──────────────────────────────┘
//
// The Controller is the single owner of State; callers only ever see
// copies. Operations are serialised by an operation lock held across the
// driver call, while the state itself sits behind a separate short lock,
// so State and observers are never held up by a slow appliance.
//
// # Timed routines
//
// The sleep routine schedules a power-off. Any explicit operation
// (TurnOn, TurnOff, SetProfile, AdjustIntensity, the routines and
// EmotionResponse) cancels that pending power-off before it mutates state,
// while holding the operation lock. The timer callback takes the same
// lock and only acts if its token is still the current one, so a cancelled
// timer that already fired is a no-op.
//
// ApplyAdaptation is the exception: it is the automatic follow-up to a
// recognised command and leaves a pending routine in place.
//
// # Driver failures
//
// State is updated before the driver is called and is not rolled back
// when the driver fails. The failure is returned wrapped in ErrDriver.
package device
