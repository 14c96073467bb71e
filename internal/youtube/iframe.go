// Package youtube adapts a player with the YouTube IFrame API's shape to the
// uniform backend contract.
package youtube

import (
	"context"
	"strconv"

	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
)

// PlayerState mirrors YT.PlayerState.
type PlayerState int

const (
	StateUnstarted PlayerState = -1
	StateEnded     PlayerState = 0
	StatePlaying   PlayerState = 1
	StatePaused    PlayerState = 2
	StateBuffering PlayerState = 3
	StateCued      PlayerState = 5
)

func (s PlayerState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// ErrorCode mirrors the codes passed to the IFrame API's onError.
type ErrorCode int

const (
	ErrorInvalidParam       ErrorCode = 2
	ErrorHTML5              ErrorCode = 5
	ErrorNotFound           ErrorCode = 100
	ErrorEmbedNotAllowed    ErrorCode = 101
	ErrorEmbedNotAllowedAlt ErrorCode = 150
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorInvalidParam:
		return "invalid video id"
	case ErrorHTML5:
		return "the player could not play this video"
	case ErrorNotFound:
		return "video not found or private"
	case ErrorEmbedNotAllowed, ErrorEmbedNotAllowedAlt:
		return "the owner does not allow playback outside youtube.com"
	default:
		return "unknown player error"
	}
}

// Err converts the code into a vendor playback error.
func (c ErrorCode) Err() error {
	return &kerrors.VendorError{
		Source:  "youtube",
		Code:    strconv.Itoa(int(c)),
		Message: c.String(),
	}
}

// Player is the subset of the IFrame player's methods the adapter drives.
// Seconds are fractional; volume is an integer 0-100.
type Player interface {
	CueVideoByID(videoID string, startSeconds float64) error
	PlayVideo() error
	PauseVideo() error
	SeekTo(seconds float64, allowSeekAhead bool) error
	SetVolume(volume int) error
	Destroy() error
}

// Listener carries the player's event callbacks.
type Listener struct {
	OnReady       func()
	OnStateChange func(state PlayerState)
	OnError       func(code ErrorCode)
	// OnProgress reports the current time while playing. The IFrame API
	// exposes this through polling getCurrentTime.
	OnProgress func(seconds float64)
}

// Factory creates a player bound to l. It corresponds to new YT.Player.
type Factory func(ctx context.Context, l Listener) (Player, error)
