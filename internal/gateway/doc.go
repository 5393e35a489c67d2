// Package gateway wraps outbound calls to the token-issuing backend.
//
// # Operations
//
// The [Gateway] lists playlists and tracks, fetches the provider token, refreshes the
// delegated credential, and issues transport commands (play, pause, resume, seek) against
// the backend's /api/spotify surface.
//
// # Authorization
//
// Every request carries the current credential as a bearer token. A 401 triggers exactly one
// refresh followed by exactly one retry with the new credential. When the refresh fails or the
// retry is rejected again, the credential is cleared, [Options.OnUnauthorized] runs, and the call
// fails with [shared.ErrNotAuthenticated]. Requests are never sent without a credential.
//
// # Responses
//
// Bodies are parsed according to their Content-Type: JSON is decoded into [Response.JSONData]
// and anything else is kept as raw text. Some transport commands return no body at all.
//
// # Error Handling
//
// Gateway uses typed errors from the shared package:
//   - [shared.ErrInvalidArgument] : empty identifier or negative position, nothing was sent
//   - [shared.ErrNotAuthenticated] : no credential, or the backend rejected it after a refresh
//   - [shared.ErrRefreshFailed] : the refresh request itself failed
//   - [shared.ErrAPIRequest] : any other non-2xx response, see [StatusError]
package gateway
