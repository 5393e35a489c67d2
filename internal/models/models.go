// package models defines the data model for the kiosk remote
package models

// Playlist represents a playlist listed by the backend.
type Playlist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	TrackCount int      `json:"track_count"`
	Images     []string `json:"images,omitempty"`
}

// Artwork returns the canonical artwork URL or an empty string.
func (p Playlist) Artwork() string {
	return firstImage(p.Images)
}

// Track represents a track within a playlist.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URI        string   `json:"uri"`
	Artist     string   `json:"artist,omitempty"`
	DurationMs int      `json:"duration_ms"`
	Images     []string `json:"images,omitempty"` // Album art
}

// Artwork returns the canonical album art URL or an empty string.
func (t Track) Artwork() string {
	return firstImage(t.Images)
}

func firstImage(images []string) string {
	if len(images) == 0 {
		return ""
	}
	return images[0]
}
