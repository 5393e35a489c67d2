package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spotibaby/internal/formatter"
	"github.com/desertthunder/spotibaby/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the signed-in user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("listing playlists")

	playlists, err := r.gateway.Playlists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if art := p.Artwork(); art != "" {
			r.writePlain("   Artwork: %s\n", art)
		}
		r.writePlain("\n")
	}
	return nil
}

// Tracks lists the tracks of one playlist.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	if playlistID == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("listing tracks", "playlist", playlistID)

	tracks, err := r.gateway.Tracks(ctx, playlistID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	data, err := formatter.Render(formatter.Format(cmd.String("format")), playlistID, tracks)
	if err != nil {
		return err
	}

	if outputFile := cmd.String("output"); outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		r.logger.Infof("tracks written to %v", outputFile)
		return r.writePlain("✓ %d tracks written to %s\n", len(tracks), outputFile)
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
