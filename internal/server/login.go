package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/spotibaby/internal/credentials"
)

// LoginResult contains the outcome of a browser login.
type LoginResult struct {
	Credential *credentials.Credential
	err        error
}

func (l *LoginResult) Error() error {
	return l.err
}

// LoginHandler receives the backend's post-login redirect carrying the credential as ?token=.
//
// The credential is stored, the browser is redirected to / so the token leaves the address
// bar, and the outcome is reported once on [LoginHandler.Result].
type LoginHandler struct {
	store      credentials.Store
	resultChan chan LoginResult
	once       sync.Once
	mu         sync.Mutex
	handled    bool
	succeeded  bool
}

// NewLoginHandler creates a [LoginHandler] persisting into store.
func NewLoginHandler(store credentials.Store) *LoginHandler {
	return &LoginHandler{
		store:      store,
		resultChan: make(chan LoginResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *LoginHandler) Routes() []string {
	return []string{"/"}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	token, errParam := q.Get("token"), q.Get("error")

	if token == "" && errParam == "" {
		h.mu.Lock()
		ok := h.succeeded
		h.mu.Unlock()

		if !ok {
			http.Error(w, "Missing token", http.StatusBadRequest)
			return
		}
		writeSuccess(w)
		return
	}

	h.mu.Lock()
	if h.handled {
		h.mu.Unlock()
		http.Error(w, "Login already processed", http.StatusBadRequest)
		return
	}
	h.handled = true
	h.mu.Unlock()

	if errParam != "" {
		h.Send(LoginResult{err: fmt.Errorf("login failed: %s", errParam)})
		http.Error(w, "Login failed", http.StatusBadRequest)
		return
	}

	cred, err := credentials.Parse(token)
	if err != nil {
		h.Send(LoginResult{err: err})
		http.Error(w, "Invalid token", http.StatusBadRequest)
		return
	}

	if err := h.store.Set(r.Context(), cred); err != nil {
		h.Send(LoginResult{err: fmt.Errorf("failed to store credential: %w", err)})
		http.Error(w, "Failed to store credential", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.succeeded = true
	h.mu.Unlock()

	h.Send(LoginResult{Credential: cred})
	http.Redirect(w, r, "/", http.StatusFound)
}

// Send sends the login result through the channel (only once).
func (h *LoginHandler) Send(result LoginResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving login completion.
//
// Channel will receive exactly one result and then be closed.
func (h *LoginHandler) Result() <-chan LoginResult {
	return h.resultChan
}

func writeSuccess(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Signed In</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Signed In</h1>
        <p>The kiosk is ready. You can close this window.</p>
    </div>
</body>
</html>
`)
}
