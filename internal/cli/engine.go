package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	spotifyapi "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dalimagaadi/kord-app/internal/adapter"
	"github.com/dalimagaadi/kord-app/internal/config"
	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
	"github.com/dalimagaadi/kord-app/internal/metrics"
	"github.com/dalimagaadi/kord-app/internal/mpv"
	"github.com/dalimagaadi/kord-app/internal/playback"
	"github.com/dalimagaadi/kord-app/internal/queue"
	"github.com/dalimagaadi/kord-app/internal/registry"
	"github.com/dalimagaadi/kord-app/internal/server"
	"github.com/dalimagaadi/kord-app/internal/soundcloud"
	"github.com/dalimagaadi/kord-app/internal/spotify"
	"github.com/dalimagaadi/kord-app/internal/store"
	"github.com/dalimagaadi/kord-app/internal/youtube"
)

// Spotify's Web API allows bursts but throttles sustained traffic per app.
const (
	spotifyRequestsPerSecond = 5
	spotifyBurst             = 10
)

// engine is the wired playback stack shared by the play and ui commands.
type engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	loop     *eventloop.Loop
	gatherer *prometheus.Registry
	store    *store.Store
	registry *registry.Registry
	sync     *playback.Synchronizer
	queue    *queue.Queue

	spotifyClient *spotifyapi.Client
}

func newEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*engine, error) {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)
	loop := eventloop.New(logger.Named("loop"))

	built, client := buildAdapters(ctx, cfg, loop, logger, m)
	for _, err := range built.Errors {
		logger.Warn("Backend unavailable", zap.Error(err))
	}
	if len(built.Data) == 0 {
		err := errors.New("no playback backends available")
		if built.HasErrors() {
			err = fmt.Errorf("%w: %w", err, errors.Join(built.Errors...))
		}
		return nil, err
	}

	reg, err := registry.New(built.Data...)
	if err != nil {
		return nil, err
	}

	st := store.New(cfg.Playback.InitialVolume())
	return &engine{
		cfg:      cfg,
		logger:   logger,
		loop:     loop,
		gatherer: promReg,
		store:    st,
		registry: reg,
		sync: playback.New(st, reg, loop, logger.Named("playback"),
			playback.WithMetrics(m),
			playback.WithErrorSink(playback.LogSink{Logger: logger.Named("playback")})),
		queue: queue.New(st, logger.Named("queue")),

		spotifyClient: client,
	}, nil
}

// buildAdapters creates an adapter for every enabled backend. A backend that
// cannot be built is reported and skipped. The Spotify Web API client is
// returned when one was created.
func buildAdapters(ctx context.Context, cfg *config.Config, loop eventloop.Dispatcher, logger *zap.Logger, m *metrics.Metrics) (kerrors.PartialResult[[]core.Adapter], *spotifyapi.Client) {
	var result kerrors.PartialResult[[]core.Adapter]
	var client *spotifyapi.Client
	opts := []adapter.Option{adapter.WithMetrics(m)}

	if cfg.Spotify.Enabled() {
		var err error
		client, err = spotify.NewClient(ctx, cfg.Spotify)
		if err != nil {
			result.AddError(fmt.Errorf("spotify: %w", err))
		} else {
			factory := spotify.ConnectFactory(client, spotify.ConnectConfig{
				DeviceName:   cfg.Spotify.DeviceName,
				PollInterval: time.Duration(cfg.Spotify.PollInterval) * time.Millisecond,
				Limiter:      rate.NewLimiter(spotifyRequestsPerSecond, spotifyBurst),
				Logger:       logger.Named("spotify-connect"),
			})
			result.Data = append(result.Data, spotify.New(factory, loop, logger.Named("spotify"), opts...))
		}
	}

	if (cfg.YouTube.Enabled || cfg.SoundCloud.Enabled) && !mpv.Available {
		result.AddError(fmt.Errorf("youtube/soundcloud: %w: libmpv backend is not enabled", kerrors.ErrBackendDisabled))
		return result, client
	}
	if cfg.YouTube.Enabled {
		factory := youtube.MPVFactory(mpv.Options{YTDLFormat: cfg.YouTube.YTDLFormat})
		result.Data = append(result.Data, youtube.New(factory, loop, logger.Named("youtube"), opts...))
	}
	if cfg.SoundCloud.Enabled {
		factory := soundcloud.MPVFactory(mpv.Options{})
		result.Data = append(result.Data, soundcloud.New(factory, loop, logger.Named("soundcloud"), opts...))
	}

	return result, client
}

// playable splits tracks into those with a registered backend and errors for
// the rest.
func playable(tracks []core.Track, sources []core.Source) kerrors.PartialResult[[]core.Track] {
	var result kerrors.PartialResult[[]core.Track]
	for _, t := range tracks {
		if !slices.Contains(sources, t.Source) {
			result.AddError(fmt.Errorf("%s: %w: %q is not enabled", t.Key(), kerrors.ErrBackendDisabled, t.Source))
			continue
		}
		result.Data = append(result.Data, t)
	}
	return result
}

// run starts the event loop, the optional HTTP endpoint and the synchronizer,
// then blocks in front. Returning from front stops everything.
func (e *engine) run(ctx context.Context, front func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.loop.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if e.cfg.Metrics.Enabled {
		srv := server.New(e.cfg.Metrics.Addr, e.sync, e.gatherer, e.logger.Named("http"))
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}

	e.sync.Start(gctx)
	g.Go(func() error {
		defer cancel()
		return front(gctx)
	})

	err := g.Wait()
	e.close()
	return err
}

func (e *engine) close() {
	e.queue.Close()
	e.sync.Stop()
	if err := e.registry.Close(); err != nil {
		e.logger.Warn("Closing backends", zap.Error(err))
	}
	if e.spotifyClient != nil {
		tokens := spotify.NewTokenStore(e.cfg.Spotify.TokenFile)
		if err := spotify.PersistToken(e.spotifyClient, tokens); err != nil {
			e.logger.Warn("Saving Spotify token", zap.String("path", tokens.Path()), zap.Error(err))
		}
	}
}
