package spotify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
)

// webAPI is the part of the Web API client the Connect player uses.
type webAPI interface {
	PlayerDevices(ctx context.Context) ([]spotify.PlayerDevice, error)
	PlayerState(ctx context.Context, opts ...spotify.RequestOption) (*spotify.PlayerState, error)
	PlayOpt(ctx context.Context, opt *spotify.PlayOptions) error
	PauseOpt(ctx context.Context, opt *spotify.PlayOptions) error
	SeekOpt(ctx context.Context, position int, opt *spotify.PlayOptions) error
	VolumeOpt(ctx context.Context, percent int, opt *spotify.PlayOptions) error
}

var _ webAPI = (*spotify.Client)(nil)

// ConnectConfig configures the Connect player.
type ConnectConfig struct {
	// DeviceName selects a device by name. Empty uses the active device.
	DeviceName   string
	PollInterval time.Duration
	Limiter      *rate.Limiter
	Logger       *zap.Logger
}

// ConnectFactory creates players that drive a Spotify Connect device.
func ConnectFactory(client *spotify.Client, cfg ConnectConfig) Factory {
	return connectFactory(client, cfg)
}

func connectFactory(api webAPI, cfg ConnectConfig) Factory {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(ctx context.Context, l Listener) (Player, error) {
		p := &connectPlayer{api: api, cfg: cfg, listener: l, logger: cfg.Logger}
		device, err := p.findDevice(ctx)
		if err != nil {
			return nil, err
		}
		p.deviceID = device.ID
		p.logger.Info("Using Spotify device",
			zap.String("name", device.Name),
			zap.String("type", device.Type),
			zap.String("id", device.ID.String()))

		pollCtx, cancel := context.WithCancel(ctx)
		p.ctx = pollCtx
		p.cancel = cancel
		p.done = make(chan struct{})
		go p.pollLoop(pollCtx)

		if l.OnReady != nil {
			l.OnReady(device.ID.String())
		}
		return p, nil
	}
}

type connectPlayer struct {
	api      webAPI
	cfg      ConnectConfig
	listener Listener
	logger   *zap.Logger
	deviceID spotify.ID

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	last *State
}

func (p *connectPlayer) findDevice(ctx context.Context) (spotify.PlayerDevice, error) {
	if err := p.wait(ctx); err != nil {
		return spotify.PlayerDevice{}, err
	}
	devices, err := p.api.PlayerDevices(ctx)
	if err != nil {
		return spotify.PlayerDevice{}, fmt.Errorf("failed to list devices: %w", classify(err))
	}

	if p.cfg.DeviceName != "" {
		for _, d := range devices {
			if strings.EqualFold(d.Name, p.cfg.DeviceName) {
				return d, nil
			}
		}
		return spotify.PlayerDevice{}, fmt.Errorf("%w: %q", kerrors.ErrNoDevice, p.cfg.DeviceName)
	}

	for _, d := range devices {
		if d.Active && !d.Restricted {
			return d, nil
		}
	}
	for _, d := range devices {
		if !d.Restricted {
			return d, nil
		}
	}
	return spotify.PlayerDevice{}, kerrors.ErrNoDevice
}

func (p *connectPlayer) opts() *spotify.PlayOptions {
	id := p.deviceID
	return &spotify.PlayOptions{DeviceID: &id}
}

func (p *connectPlayer) wait(ctx context.Context) error {
	if p.cfg.Limiter == nil {
		return nil
	}
	return p.cfg.Limiter.Wait(ctx)
}

func (p *connectPlayer) do(name string, fn func(ctx context.Context) error) error {
	if err := p.wait(p.ctx); err != nil {
		return err
	}
	if err := fn(p.ctx); err != nil {
		return fmt.Errorf("spotify %s: %w", name, classify(err))
	}
	return nil
}

func (p *connectPlayer) Play(uri string) error {
	return p.do("play", func(ctx context.Context) error {
		opt := p.opts()
		opt.URIs = []spotify.URI{spotify.URI(uri)}
		return p.api.PlayOpt(ctx, opt)
	})
}

func (p *connectPlayer) Resume() error {
	return p.do("resume", func(ctx context.Context) error {
		return p.api.PlayOpt(ctx, p.opts())
	})
}

// Pause treats "already paused" restriction errors as success.
func (p *connectPlayer) Pause() error {
	err := p.do("pause", func(ctx context.Context) error {
		return p.api.PauseOpt(ctx, p.opts())
	})
	if isRestriction(err) {
		return nil
	}
	return err
}

func (p *connectPlayer) Seek(position time.Duration) error {
	return p.do("seek", func(ctx context.Context) error {
		return p.api.SeekOpt(ctx, int(position.Milliseconds()), p.opts())
	})
}

func (p *connectPlayer) SetVolume(volume float64) error {
	percent := int(math.Round(volume * 100))
	return p.do("volume", func(ctx context.Context) error {
		return p.api.VolumeOpt(ctx, percent, p.opts())
	})
}

func (p *connectPlayer) Disconnect() error {
	p.cancel()
	<-p.done
	return nil
}

func (p *connectPlayer) pollLoop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *connectPlayer) pollOnce(ctx context.Context) {
	if err := p.wait(ctx); err != nil {
		return
	}
	ps, err := p.api.PlayerState(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		err = classify(err)
		p.logger.Debug("Failed to poll player state", zap.Error(err))
		switch {
		case errors.Is(err, kerrors.ErrNotAuthenticated):
			p.report(ErrorAuthentication, err.Error())
		case errors.Is(err, kerrors.ErrPremiumRequired):
			p.report(ErrorAccount, err.Error())
		}
		return
	}

	state := convertState(ps, p.deviceID)

	p.mu.Lock()
	unchanged := (state == nil && p.last == nil) || (state != nil && p.last != nil && *state == *p.last)
	p.last = state
	p.mu.Unlock()

	if unchanged || p.listener.OnStateChanged == nil {
		return
	}
	p.listener.OnStateChanged(state)
}

func (p *connectPlayer) report(kind, message string) {
	if p.listener.OnError != nil {
		p.listener.OnError(kind, message)
	}
}

// convertState returns nil unless deviceID is the device playing.
func convertState(ps *spotify.PlayerState, deviceID spotify.ID) *State {
	if ps == nil || ps.Item == nil || ps.Device.ID != deviceID {
		return nil
	}
	return &State{
		TrackURI: string(ps.Item.URI),
		Paused:   !ps.Playing,
		Position: time.Duration(int(ps.Progress)) * time.Millisecond,
		Duration: time.Duration(int(ps.Item.Duration)) * time.Millisecond,
	}
}

// classify maps Web API status codes onto the engine's sentinel errors.
func classify(err error) error {
	var apiErr spotify.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case 401:
		return fmt.Errorf("%w: %w", kerrors.ErrNotAuthenticated, err)
	case 403:
		if strings.Contains(strings.ToLower(apiErr.Message), "premium") {
			return fmt.Errorf("%w: %w", kerrors.ErrPremiumRequired, err)
		}
	case 404:
		return fmt.Errorf("%w: %w", kerrors.ErrNoDevice, err)
	case 429:
		return fmt.Errorf("%w: %w", kerrors.ErrRateLimited, err)
	}
	return err
}

func isRestriction(err error) bool {
	var apiErr spotify.Error
	return errors.As(err, &apiErr) && apiErr.Status == 403 &&
		strings.Contains(strings.ToLower(apiErr.Message), "restriction")
}
