package spotify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/dalimagaadi/kord-app/internal/adapter"
	"github.com/dalimagaadi/kord-app/internal/adapter/adaptertest"
	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
)

type fakeAPI struct {
	devices  []spotify.PlayerDevice
	state    *spotify.PlayerState
	stateErr error
	pauseErr error

	played  []spotify.PlayOptions
	paused  int
	seekMS  int
	percent int
}

func (f *fakeAPI) PlayerDevices(context.Context) ([]spotify.PlayerDevice, error) {
	return f.devices, nil
}

func (f *fakeAPI) PlayerState(context.Context, ...spotify.RequestOption) (*spotify.PlayerState, error) {
	return f.state, f.stateErr
}

func (f *fakeAPI) PlayOpt(_ context.Context, opt *spotify.PlayOptions) error {
	f.played = append(f.played, *opt)
	return nil
}

func (f *fakeAPI) PauseOpt(context.Context, *spotify.PlayOptions) error {
	f.paused++
	return f.pauseErr
}

func (f *fakeAPI) SeekOpt(_ context.Context, position int, _ *spotify.PlayOptions) error {
	f.seekMS = position
	return nil
}

func (f *fakeAPI) VolumeOpt(_ context.Context, percent int, _ *spotify.PlayOptions) error {
	f.percent = percent
	return nil
}

func connect(t *testing.T, api *fakeAPI, cfg ConnectConfig, l Listener) *connectPlayer {
	t.Helper()
	cfg.PollInterval = time.Hour
	p, err := connectFactory(api, cfg)(context.Background(), l)
	if err != nil {
		t.Fatalf("connect error = %v", err)
	}
	t.Cleanup(func() { _ = p.Disconnect() })
	return p.(*connectPlayer)
}

func TestConnectPicksDevice(t *testing.T) {
	devices := []spotify.PlayerDevice{
		{ID: "phone", Name: "Phone", Restricted: true, Active: true},
		{ID: "desk", Name: "Desk"},
		{ID: "kitchen", Name: "Kitchen", Active: true},
	}

	tests := []struct {
		name   string
		device string
		want   spotify.ID
	}{
		{name: "active unrestricted", want: "kitchen"},
		{name: "by name", device: "desk", want: "desk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var readyID string
			p := connect(t, &fakeAPI{devices: devices}, ConnectConfig{DeviceName: tt.device},
				Listener{OnReady: func(id string) { readyID = id }})
			if p.deviceID != tt.want {
				t.Errorf("deviceID = %q, want %q", p.deviceID, tt.want)
			}
			if readyID != string(tt.want) {
				t.Errorf("ready device = %q, want %q", readyID, tt.want)
			}
		})
	}
}

func TestConnectWithoutDevice(t *testing.T) {
	var kinds []string
	_, err := connectFactory(&fakeAPI{}, ConnectConfig{})(context.Background(),
		Listener{OnError: func(k, _ string) { kinds = append(kinds, k) }})

	if !errors.Is(err, kerrors.ErrNoDevice) {
		t.Errorf("error = %v, want ErrNoDevice", err)
	}
	// The returned error is the only report; the adapter turns it into one
	// error event.
	if len(kinds) != 0 {
		t.Errorf("OnError kinds = %v, want none", kinds)
	}
}

func TestMissingDeviceIsReportedOnce(t *testing.T) {
	loop := &eventloop.Manual{}
	a := New(connectFactory(&fakeAPI{}, ConnectConfig{}), loop, zap.NewNop(), adapter.WithSpawn(adaptertest.Inline))
	var errs []core.ErrorInfo
	a.OnError(func(info core.ErrorInfo) { errs = append(errs, info) })

	a.Activate(0.5)
	a.Mount(context.Background())
	loop.Drain()

	if len(errs) != 1 {
		t.Fatalf("errors = %+v, want exactly one", errs)
	}
	if !errors.Is(errs[0], kerrors.ErrNoDevice) {
		t.Errorf("error = %v, want ErrNoDevice", errs[0])
	}
}

func TestConnectCommands(t *testing.T) {
	api := &fakeAPI{devices: []spotify.PlayerDevice{{ID: "desk", Name: "Desk", Active: true}}}
	p := connect(t, api, ConnectConfig{}, Listener{})

	if err := p.Play(uriA); err != nil {
		t.Fatal(err)
	}
	if err := p.SetVolume(0.42); err != nil {
		t.Fatal(err)
	}
	if err := p.Seek(1500 * time.Millisecond); err != nil {
		t.Fatal(err)
	}

	if len(api.played) != 1 || len(api.played[0].URIs) != 1 || api.played[0].URIs[0] != spotify.URI(uriA) {
		t.Fatalf("played = %+v, want %s", api.played, uriA)
	}
	if api.played[0].DeviceID == nil || *api.played[0].DeviceID != "desk" {
		t.Error("play was not targeted at the selected device")
	}
	if api.percent != 42 {
		t.Errorf("volume percent = %d, want 42", api.percent)
	}
	if api.seekMS != 1500 {
		t.Errorf("seek = %dms, want 1500", api.seekMS)
	}
}

func TestPauseIgnoresRestriction(t *testing.T) {
	api := &fakeAPI{
		devices:  []spotify.PlayerDevice{{ID: "desk", Active: true}},
		pauseErr: spotify.Error{Status: 403, Message: "Player command failed: Restriction violated"},
	}
	p := connect(t, api, ConnectConfig{}, Listener{})

	if err := p.Pause(); err != nil {
		t.Errorf("Pause() error = %v, want nil", err)
	}
}

func TestPollReportsStateChanges(t *testing.T) {
	api := &fakeAPI{devices: []spotify.PlayerDevice{{ID: "desk", Active: true}}}
	var states []*State
	p := connect(t, api, ConnectConfig{}, Listener{OnStateChanged: func(s *State) { states = append(states, s) }})

	api.state = &spotify.PlayerState{Device: spotify.PlayerDevice{ID: "desk"}}
	api.state.Playing = true
	api.state.Progress = 2000
	api.state.Item = &spotify.FullTrack{}
	api.state.Item.URI = spotify.URI(uriA)

	p.pollOnce(context.Background())
	p.pollOnce(context.Background())

	if len(states) != 1 {
		t.Fatalf("got %d states, want 1 (unchanged polls are dropped)", len(states))
	}
	got := states[0]
	if got == nil || got.TrackURI != uriA || got.Paused || got.Position != 2*time.Second {
		t.Errorf("state = %+v", got)
	}

	api.state.Device.ID = "elsewhere"
	p.pollOnce(context.Background())
	if len(states) != 2 || states[1] != nil {
		t.Errorf("playback on another device should report nil state, got %+v", states)
	}
}

func TestPollReportsAuthErrors(t *testing.T) {
	api := &fakeAPI{devices: []spotify.PlayerDevice{{ID: "desk", Active: true}}}
	var kinds []string
	p := connect(t, api, ConnectConfig{}, Listener{OnError: func(k, _ string) { kinds = append(kinds, k) }})

	api.stateErr = spotify.Error{Status: 401, Message: "The access token expired"}
	p.pollOnce(context.Background())

	if len(kinds) != 1 || kinds[0] != ErrorAuthentication {
		t.Errorf("error kinds = %v, want [%s]", kinds, ErrorAuthentication)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{spotify.Error{Status: 401}, kerrors.ErrNotAuthenticated},
		{spotify.Error{Status: 403, Message: "Premium required"}, kerrors.ErrPremiumRequired},
		{spotify.Error{Status: 404, Message: "No active device found"}, kerrors.ErrNoDevice},
		{spotify.Error{Status: 429}, kerrors.ErrRateLimited},
	}
	for _, tt := range tests {
		if got := classify(tt.err); !errors.Is(got, tt.want) {
			t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}

	plain := errors.New("network down")
	if got := classify(plain); got != plain {
		t.Errorf("classify(plain) = %v, want unchanged", got)
	}
}

func TestTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewTokenStore(path)

	if _, err := store.Load(); !errors.Is(err, kerrors.ErrNotAuthenticated) {
		t.Errorf("Load() missing file error = %v, want ErrNotAuthenticated", err)
	}

	token := &oauth2.Token{AccessToken: "access_123", RefreshToken: "refresh_456", TokenType: "Bearer"}
	if err := store.Save(token); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("File permissions = %o, want 0600", mode)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.RefreshToken != "refresh_456" {
		t.Errorf("RefreshToken = %q, want refresh_456", loaded.RefreshToken)
	}
}
