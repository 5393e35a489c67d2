// Package engine defines the playback engine contract consumed by the session controller
// and implements it on top of the provider Web API.
//
// An [Engine] is loaded once and then constructs a single [Session] bound to a token
// provider. The session reports [EventReady], [EventNotReady] and [EventStateChanged] on
// its event feed and answers point-in-time [Session.CurrentState] queries.
//
// [WebAPIEngine] drives a named Connect device: it resolves the device by name, applies the
// initial volume once, and watches the player state for changes. Every provider request
// asks the token source for a fresh token, and a rejected token is refreshed once through
// [Options.Refresh] before the request is replayed.
package engine
