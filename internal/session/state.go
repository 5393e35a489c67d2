package session

// Phase is a step of the session lifecycle.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseTokenAcquired
	PhaseEngineReady
	PhaseActive
	PhaseDegraded
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseTokenAcquired:
		return "token_acquired"
	case PhaseEngineReady:
		return "engine_ready"
	case PhaseActive:
		return "active"
	case PhaseDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// State is a snapshot of the playback session.
//
// PositionMs is always within [0, DurationMs], so a zero duration reads as a zero position.
type State struct {
	Phase          Phase
	DeviceID       string
	IsPlaying      bool
	PositionMs     int
	DurationMs     int
	PlaylistID     string
	TrackID        string
	PendingTrackID string
	TrackIndex     int   // -1 when unknown
	Err            error // last reported failure, cleared by the next accepted command
}

func initialState() State {
	return State{Phase: PhaseUninitialized, TrackIndex: -1}
}

// HasDevice reports whether a playback device is known.
func (s State) HasDevice() bool {
	return s.DeviceID != ""
}

func (s *State) clearPlayback() {
	s.IsPlaying = false
	s.PositionMs = 0
	s.DurationMs = 0
}

// setProgress stores duration and position, keeping position inside [0, duration].
func (s *State) setProgress(positionMs, durationMs int) {
	s.DurationMs = max(0, durationMs)
	s.PositionMs = clamp(positionMs, 0, s.DurationMs)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
