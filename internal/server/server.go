package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Middleware wraps a handler. See [RequestLogger].
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which paths it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers behind a middleware chain.
type Router interface {
	http.Handler
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
}

// Callback is a short-lived local HTTP server that receives a single browser redirect.
type Callback struct {
	srv  *http.Server
	addr string
	errs chan error
}

// Listen binds addr and serves h in the background.
//
// Binding happens before Listen returns, so a port that is already taken is reported
// immediately instead of racing the browser.
func Listen(addr string, h http.Handler) (*Callback, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	c := &Callback{
		srv:  &http.Server{Handler: h, ReadHeaderTimeout: readHeaderTimeout},
		addr: ln.Addr().String(),
		errs: make(chan error, 1),
	}
	go func() {
		if err := c.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.errs <- err
		}
	}()
	return c, nil
}

// Addr is the bound address, with the port resolved when ":0" was requested.
func (c *Callback) Addr() string {
	return c.addr
}

// Errors reports a serve failure. It never reports a normal shutdown.
func (c *Callback) Errors() <-chan error {
	return c.errs
}

// Close shuts the server down, waiting briefly for in-flight requests.
func (c *Callback) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return c.srv.Shutdown(ctx)
}
