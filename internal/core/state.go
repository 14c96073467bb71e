package core

import "time"

// SeekRequest is a one-shot seek issued by a transport UI. Each request
// carries a strictly increasing sequence number so it is applied once.
type SeekRequest struct {
	Seq      uint64        `json:"seq"`
	Position time.Duration `json:"position"`
}

// Intent is the canonical, user-desired playback state. Selection counts
// track selections, so selecting the current track again is still a change.
type Intent struct {
	Track     *Track      `json:"track"`
	Selection uint64      `json:"selection"`
	IsPlaying bool        `json:"is_playing"`
	Volume    float64     `json:"volume"`
	Seek      SeekRequest `json:"seek"`
}

// HasTrack returns true if a track is selected.
func (i Intent) HasTrack() bool {
	return i.Track != nil
}

// ErrorInfo describes a failure reported by a backend. Terminal errors mean
// the track cannot play on that backend; the others are failed calls.
type ErrorInfo struct {
	Source   Source `json:"source"`
	Message  string `json:"message"`
	Terminal bool   `json:"terminal"`
	Err      error  `json:"-"`
}

func (e ErrorInfo) Error() string {
	return string(e.Source) + ": " + e.Message
}

func (e ErrorInfo) Unwrap() error {
	return e.Err
}

// ObservedState is an adapter's mirror of what its vendor player reported.
// It is only updated from vendor callbacks.
type ObservedState struct {
	Ready      bool
	Playing    bool
	Volume     float64
	Position   time.Duration
	ReportedAt time.Time
	LastError  *ErrorInfo
}

// Phase is the synchronizer's position in the session state machine.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAwaitingReady Phase = "awaiting_ready"
	PhaseSynced        Phase = "synced"
	PhaseCorrecting    Phase = "correcting"
)

// PlaybackState is the read-only effective playback status exposed to UIs.
type PlaybackState struct {
	Session   string        `json:"session,omitempty"`
	Phase     Phase         `json:"phase"`
	Track     *Track        `json:"track"`
	IsPlaying bool          `json:"is_playing"`
	Ended     bool          `json:"ended"`
	Progress  time.Duration `json:"progress"`
	Volume    float64       `json:"volume"`
	Error     *ErrorInfo    `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	if s == nil || s.Track == nil || s.Track.Duration == 0 {
		return 0
	}
	p := float64(s.Progress) / float64(s.Track.Duration) * 100
	if p > 100 {
		return 100
	}
	return p
}

// VolumePercent returns the volume on a 0-100 scale for display.
func (s *PlaybackState) VolumePercent() int {
	if s == nil {
		return 0
	}
	return int(s.Volume*100 + 0.5)
}

// ClampVolume forces v into [0,1]. NaN maps to 0.
func ClampVolume(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
