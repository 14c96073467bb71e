package core

import "time"

// Source indicates the streaming service a track is played from.
type Source string

const (
	SourceSpotify    Source = "spotify"
	SourceSoundCloud Source = "soundcloud"
	SourceYouTube    Source = "youtube"
)

// Sources lists every supported source in display order.
var Sources = []Source{SourceSpotify, SourceSoundCloud, SourceYouTube}

// Valid reports whether s is one of the supported sources.
func (s Source) Valid() bool {
	switch s {
	case SourceSpotify, SourceSoundCloud, SourceYouTube:
		return true
	}
	return false
}

// Track represents a playable track. A Track is immutable once selected;
// its identity is the (Source, ID) pair.
type Track struct {
	ID       string        `json:"id"`
	Source   Source        `json:"source"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Key returns the identity of the track as "source:id".
func (t Track) Key() string {
	return string(t.Source) + ":" + t.ID
}

// Same reports whether t and other identify the same track.
func (t Track) Same(other Track) bool {
	return t.Source == other.Source && t.ID == other.ID
}

// DisplayTitle returns the title, falling back to the track key.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Key()
}
