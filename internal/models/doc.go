// Package models defines the read-only library entities served by the backend.
//
//   - [Playlist] : a user playlist with its artwork references
//   - [Track] : a playable track within a playlist
//
// Entities are re-fetched on every navigation and never mutated or cached locally.
// Artwork is an ordered list of URLs; the first entry is canonical.
package models
