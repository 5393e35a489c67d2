// Package session implements the playback session controller.
//
// # State Machine
//
// The [Controller] moves through [PhaseUninitialized], [PhaseTokenAcquired],
// [PhaseEngineReady], [PhaseActive] and [PhaseDegraded]. The provider token is derived
// from the stored credential first; the engine is then loaded and a single session is
// created and connected. The controller is ready once the engine has loaded and the
// session has reported a device, in whichever order those happen.
//
// # Event Loop
//
// [Controller.Run] owns all session state on one goroutine. Commands, engine events,
// timer ticks and the results of background calls are all applied there, so no lock
// guards the state. Readers get value copies through [Controller.Snapshot] and
// [Controller.Updates].
//
// # Authoritative And Optimistic State
//
// Engine events and poll results are authoritative and always applied. Commands apply an
// optimistic result after the backend accepts them, unless an authoritative update or a
// newer command arrived in the meantime, in which case the result is dropped.
//
// # Timers
//
// A poll ticker re-reads the playback state as a fallback for missed events, and a health
// ticker reconnects the session when it goes quiet. Both live and die with Run.
package session
