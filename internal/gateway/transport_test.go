package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/shared"
	tu "github.com/desertthunder/spotibaby/internal/testing"
)

func TestTransport(t *testing.T) {
	ctx := context.Background()

	t.Run("Play", func(t *testing.T) {
		backend := newFakeBackend()
		var method, contentType string
		backend.handler = func(w http.ResponseWriter, r *http.Request) bool {
			method = r.Method
			contentType = r.Header.Get("Content-Type")
			return false
		}
		g, _, _ := newTestGateway(t, backend, "bearer")

		resp, err := g.Play(ctx, "t1", "d1", "p1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if method != http.MethodPut {
			t.Errorf("expected PUT, got %s", method)
		}
		if contentType != "application/json" {
			t.Errorf("expected JSON content type, got %s", contentType)
		}
		if !resp.IsJSON {
			t.Error("expected JSON response")
		}

		var sent map[string]string
		if err := json.Unmarshal([]byte(backend.bodies[apiPrefix+"/play"]), &sent); err != nil {
			t.Fatalf("failed to decode sent body: %v", err)
		}
		want := map[string]string{"trackId": "t1", "deviceId": "d1", "playlistId": "p1"}
		for k, v := range want {
			if sent[k] != v {
				t.Errorf("expected %s=%s, got %s", k, v, sent[k])
			}
		}
	})

	t.Run("Pause Text Response", func(t *testing.T) {
		backend := newFakeBackend()
		var method string
		backend.handler = func(w http.ResponseWriter, r *http.Request) bool {
			method = r.Method
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("Playback paused"))
			return true
		}
		g, _, _ := newTestGateway(t, backend, "bearer")

		resp, err := g.Pause(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if method != http.MethodPost {
			t.Errorf("expected POST, got %s", method)
		}
		if resp.IsJSON || resp.Text() != "Playback paused" {
			t.Errorf("expected raw text, got %+v", resp)
		}
	})

	t.Run("Resume", func(t *testing.T) {
		backend := newFakeBackend()
		backend.handler = func(w http.ResponseWriter, r *http.Request) bool {
			w.WriteHeader(http.StatusNoContent)
			return true
		}
		g, _, _ := newTestGateway(t, backend, "bearer")

		resp, err := g.Resume(ctx, "d 1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusNoContent || len(resp.Body) != 0 {
			t.Errorf("expected empty 204, got %+v", resp)
		}
		if got := backend.queries[apiPrefix+"/resume"]; got != "device_id=d+1" {
			t.Errorf("expected device query, got %s", got)
		}
	})

	t.Run("Seek", func(t *testing.T) {
		backend := newFakeBackend()
		g, _, _ := newTestGateway(t, backend, "bearer")

		if _, err := g.Seek(ctx, 42000, "d1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var sent struct {
			PositionMs int    `json:"positionMs"`
			DeviceID   string `json:"deviceId"`
		}
		if err := json.Unmarshal([]byte(backend.bodies[apiPrefix+"/seek"]), &sent); err != nil {
			t.Fatalf("failed to decode sent body: %v", err)
		}
		if sent.PositionMs != 42000 || sent.DeviceID != "d1" {
			t.Errorf("unexpected seek body %+v", sent)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		backend := newFakeBackend()
		g, _, _ := newTestGateway(t, backend, "bearer")

		calls := map[string]func() error{
			"play without track":    func() error { _, err := g.Play(ctx, "", "d1", "p1"); return err },
			"play without device":   func() error { _, err := g.Play(ctx, "t1", "", "p1"); return err },
			"play without playlist": func() error { _, err := g.Play(ctx, "t1", "d1", ""); return err },
			"resume without device": func() error { _, err := g.Resume(ctx, ""); return err },
			"seek without device":   func() error { _, err := g.Seek(ctx, 10, ""); return err },
			"seek negative":         func() error { _, err := g.Seek(ctx, -1, "d1"); return err },
		}

		for name, call := range calls {
			t.Run(name, func(t *testing.T) {
				if err := call(); !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
			})
		}

		if backend.Total() != 0 {
			t.Errorf("expected no requests, got %d", backend.Total())
		}
	})

	t.Run("Validation Never Reaches The Wire", func(t *testing.T) {
		counter := &tu.CountingRoundTripper{Next: http.DefaultTransport}
		store := credentials.NewMemoryStore()
		store.Set(ctx, &credentials.Credential{Token: "bearer"})
		g := New(Options{BaseURL: "http://127.0.0.1:1", Store: store, HTTPClient: &http.Client{Transport: counter}})

		if _, err := g.Seek(ctx, -5, "d1"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := g.Tracks(ctx, ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if counter.Calls() != 0 {
			t.Errorf("expected no round trips, got %d", counter.Calls())
		}
	})
}
