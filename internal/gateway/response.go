package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/desertthunder/spotibaby/internal/shared"
)

// Response represents a raw backend response with status and body.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v any) error {
	if !r.IsJSON {
		return fmt.Errorf("%w: expected JSON, got %q", shared.ErrAPIRequest, r.Headers.Get("Content-Type"))
	}
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty JSON body", shared.ErrAPIRequest)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

func readResponse(resp *http.Response) (*Response, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	r := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Body:       body,
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		return r, nil
	}

	if len(body) == 0 {
		r.IsJSON = true
		return r, nil
	}

	// A body that claims JSON but does not parse is kept as raw text.
	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		r.IsJSON = true
		r.JSONData = jsonData
	}
	return r, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
