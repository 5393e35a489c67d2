// Package server provides HTTP routing, middleware, and the login callback for the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Login Callback Handler
//
// [LoginHandler] receives the backend's redirect after a successful provider login. The backend appends
// the delegated credential as a token query parameter; the handler stores it and redirects to the
// root so the token does not linger in the address bar. The outcome is sent through a channel.
//
// It only processes one login to prevent replay.
//
// # Callback Server
//
// When the user signs in, [Listen] binds a temporary [Callback] server on the configured address
// (localhost:3000 by default). It handles the redirect and is closed once the credential arrives.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
