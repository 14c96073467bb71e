package core

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
)

var (
	spotifyURIRegex   = regexp.MustCompile(`^spotify:track:([a-zA-Z0-9]+)$`)
	spotifyURLRegex   = regexp.MustCompile(`^/track/([a-zA-Z0-9]+)`)
	youtubeIDRegex    = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	soundcloudPathRex = regexp.MustCompile(`^/[^/]+/[^/]+`)
)

// ParseTrackRef parses a user supplied track reference into a Track.
//
// Accepted forms:
//
//	spotify:track:<id>          https://open.spotify.com/track/<id>
//	youtube:<id>                https://www.youtube.com/watch?v=<id>  https://youtu.be/<id>
//	soundcloud:<artist>/<track> https://soundcloud.com/<artist>/<track>
func ParseTrackRef(ref string) (Track, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Track{}, fmt.Errorf("%w: empty track reference", kerrors.ErrUnknownSource)
	}

	if m := spotifyURIRegex.FindStringSubmatch(ref); m != nil {
		return Track{ID: m[1], Source: SourceSpotify}, nil
	}

	if id, ok := strings.CutPrefix(ref, "youtube:"); ok {
		if !youtubeIDRegex.MatchString(id) {
			return Track{}, fmt.Errorf("invalid youtube video id %q", id)
		}
		return Track{ID: id, Source: SourceYouTube}, nil
	}

	if path, ok := strings.CutPrefix(ref, "soundcloud:"); ok {
		path = "/" + strings.Trim(path, "/")
		if !soundcloudPathRex.MatchString(path) {
			return Track{}, fmt.Errorf("invalid soundcloud track path %q", path)
		}
		return Track{ID: strings.TrimPrefix(path, "/"), Source: SourceSoundCloud}, nil
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return Track{}, fmt.Errorf("%w: %q", kerrors.ErrUnknownSource, ref)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "open.spotify.com":
		if m := spotifyURLRegex.FindStringSubmatch(u.Path); m != nil {
			return Track{ID: m[1], Source: SourceSpotify}, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); youtubeIDRegex.MatchString(id) {
			return Track{ID: id, Source: SourceYouTube}, nil
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); youtubeIDRegex.MatchString(id) {
			return Track{ID: id, Source: SourceYouTube}, nil
		}
	case "soundcloud.com", "m.soundcloud.com":
		if soundcloudPathRex.MatchString(u.Path) {
			return Track{ID: strings.Trim(u.Path, "/"), Source: SourceSoundCloud}, nil
		}
	}

	return Track{}, fmt.Errorf("%w: %q", kerrors.ErrUnknownSource, ref)
}

// ParseTrackRefs parses every reference, collecting failures instead of
// stopping at the first one.
func ParseTrackRefs(refs []string) *kerrors.PartialResult[[]Track] {
	result := &kerrors.PartialResult[[]Track]{}
	for _, ref := range refs {
		track, err := ParseTrackRef(ref)
		if err != nil {
			result.AddError(err)
			continue
		}
		result.Data = append(result.Data, track)
	}
	return result
}
