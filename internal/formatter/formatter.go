// package formatter renders track listings as CSV, Markdown, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/desertthunder/spotibaby/internal/models"
	"github.com/desertthunder/spotibaby/internal/shared"
)

// Format names an output format accepted by [Render].
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Render formats tracks in the requested format. title heads the Markdown and text output.
func Render(format Format, title string, tracks []models.Track) ([]byte, error) {
	switch format {
	case FormatText, "":
		return TracksToText(title, tracks), nil
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatMarkdown, "md":
		return TracksToMarkdown(title, tracks), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// TracksToCSV writes one row per track with columns: ID, Name, Artist, DurationMs, URI, Artwork
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Artist", "DurationMs", "URI", "Artwork"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, t := range tracks {
		record := []string{t.ID, t.Name, t.Artist, strconv.Itoa(t.DurationMs), t.URI, t.Artwork()}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// TracksToMarkdown renders a numbered list with durations, using the first track's album art as cover.
func TracksToMarkdown(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	if len(tracks) > 0 && tracks[0].Artwork() != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", tracks[0].Artwork())
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	for i, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s [%s]\n", i+1, trackLabel(t), shared.FormatMillis(t.DurationMs))
	}
	return buf.Bytes()
}

// TracksToText renders a plain numbered list.
func TracksToText(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "Playlist: %s\n", title)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))

	for i, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, trackLabel(t), shared.FormatMillis(t.DurationMs))
		fmt.Fprintf(&buf, "   ID: %s\n", t.ID)
	}
	return buf.Bytes()
}

func trackLabel(t models.Track) string {
	if t.Artist == "" {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Name)
}
