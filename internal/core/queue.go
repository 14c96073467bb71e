package core

// Queue represents a playback queue.
type Queue struct {
	Tracks       []Track `json:"tracks"`
	CurrentIndex int     `json:"current_index"`
}

// Current returns the current track, or nil if the queue is empty.
func (q *Queue) Current() *Track {
	if q == nil || len(q.Tracks) == 0 || q.CurrentIndex < 0 || q.CurrentIndex >= len(q.Tracks) {
		return nil
	}
	return &q.Tracks[q.CurrentIndex]
}

// Upcoming returns tracks after the current position.
func (q *Queue) Upcoming() []Track {
	if q == nil || len(q.Tracks) == 0 || q.CurrentIndex < 0 || q.CurrentIndex >= len(q.Tracks)-1 {
		return nil
	}
	return q.Tracks[q.CurrentIndex+1:]
}

// Advance moves to the next track. It returns false at the end of the queue.
func (q *Queue) Advance() bool {
	if q == nil || q.CurrentIndex >= len(q.Tracks)-1 {
		return false
	}
	q.CurrentIndex++
	return true
}

// Retreat moves to the previous track. It returns false at the start of the queue.
func (q *Queue) Retreat() bool {
	if q == nil || q.CurrentIndex <= 0 || len(q.Tracks) == 0 {
		return false
	}
	q.CurrentIndex--
	return true
}

// Len returns the total number of tracks in the queue.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Clone returns a copy that does not share the track slice.
func (q *Queue) Clone() Queue {
	if q == nil {
		return Queue{}
	}
	tracks := make([]Track, len(q.Tracks))
	copy(tracks, q.Tracks)
	return Queue{Tracks: tracks, CurrentIndex: q.CurrentIndex}
}
