package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Method Routing", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle("get", "/ping", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("outer"), mark("inner"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			order = append(order, "handler")
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "outer,inner,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("RequestLogger Hides Query", func(t *testing.T) {
		var buf bytes.Buffer
		l := shared.NewLogger(&buf)
		_ = shared.SetLogLevel(l, "debug")

		r := NewBasicRouter()
		r.Use(RequestLogger(l))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?token=secret", nil))

		out := buf.String()
		if strings.Contains(out, "secret") {
			t.Error("query string must not be logged")
		}
		if !strings.Contains(out, "418") {
			t.Errorf("expected status in log, got %s", out)
		}
	})
}

func TestLoginHandler(t *testing.T) {
	ctx := context.Background()

	newRouter := func(store credentials.Store) (*LoginHandler, *BasicRouter) {
		h := NewLoginHandler(store)
		r := NewBasicRouter()
		r.Handler(h)
		return h, r
	}

	t.Run("Stores Token And Strips It", func(t *testing.T) {
		store := credentials.NewMemoryStore()
		h, r := newRouter(store)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token=abc.def.ghi", nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/" {
			t.Errorf("expected redirect to /, got %s", loc)
		}

		result := <-h.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Credential.Token != "abc.def.ghi" {
			t.Errorf("unexpected credential %+v", result.Credential)
		}
		if c, _ := store.Get(ctx); c == nil || c.Token != "abc.def.ghi" {
			t.Errorf("expected credential persisted, got %+v", c)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Signed In") {
			t.Errorf("expected success page after redirect, got %d", rec.Code)
		}
	})

	t.Run("Processes Once", func(t *testing.T) {
		_, r := newRouter(credentials.NewMemoryStore())
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?token=one", nil))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token=two", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for replay, got %d", rec.Code)
		}
	})

	t.Run("Missing Token", func(t *testing.T) {
		h, r := newRouter(credentials.NewMemoryStore())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		select {
		case <-h.Result():
			t.Error("a bare visit must not complete the login")
		default:
		}
	})

	t.Run("Error Parameter", func(t *testing.T) {
		h, r := newRouter(credentials.NewMemoryStore())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?error=access_denied", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-h.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected access_denied error, got %v", result.Error())
		}
	})

	t.Run("Blank Token", func(t *testing.T) {
		h, r := newRouter(credentials.NewMemoryStore())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token=%20%20", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); result.Error() == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("Other Paths", func(t *testing.T) {
		_, r := newRouter(credentials.NewMemoryStore())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestCallback(t *testing.T) {
	t.Run("Serves And Closes", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("ok"))
		}))

		c, err := Listen("127.0.0.1:0", r)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.HasSuffix(c.Addr(), ":0") {
			t.Errorf("expected resolved port, got %s", c.Addr())
		}

		resp, err := http.Get("http://" + c.Addr() + "/")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}

		if err := c.Close(); err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
		select {
		case err := <-c.Errors():
			t.Errorf("expected no serve error after close, got %v", err)
		default:
		}
	})

	t.Run("Port In Use", func(t *testing.T) {
		first, err := Listen("127.0.0.1:0", http.NotFoundHandler())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer first.Close()

		if _, err := Listen(first.Addr(), http.NotFoundHandler()); err == nil {
			t.Error("expected bind error for a taken port")
		}
	})
}
