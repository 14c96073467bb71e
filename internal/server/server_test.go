package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/core"
	"github.com/dalimagaadi/kord-app/internal/metrics"
	"github.com/dalimagaadi/kord-app/internal/playback"
)

type fakeStatus struct {
	state   core.PlaybackState
	sources []playback.SourceStatus
	err     error
}

func (f *fakeStatus) State() core.PlaybackState { return f.state }

func (f *fakeStatus) Sources(context.Context) ([]playback.SourceStatus, error) {
	return f.sources, f.err
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+path, http.NoBody)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp, string(body)
}

func newTestServer(t *testing.T, status StatusSource) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	srv := httptest.NewServer(setupRoutes(status, reg, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, m
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &fakeStatus{})

	resp, body := get(t, srv, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("/healthz Content-Type = %q, want application/json", ct)
	}
	if !strings.Contains(body, `"ok"`) {
		t.Errorf("/healthz body = %q", body)
	}
}

func TestMetrics(t *testing.T) {
	srv, m := newTestServer(t, &fakeStatus{})
	m.SessionStarted(core.SourceYouTube)

	resp, body := get(t, srv, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `kord_sessions_total{source="youtube"} 1`) {
		t.Errorf("/metrics missing session counter:\n%s", body)
	}
}

func TestStatus(t *testing.T) {
	track := core.Track{ID: "42", Source: core.SourceSpotify}
	status := &fakeStatus{
		state:   core.PlaybackState{Phase: core.PhaseSynced, Track: &track, IsPlaying: true, Volume: 0.5},
		sources: []playback.SourceStatus{{Source: core.SourceSpotify, Ready: true, Active: true}},
	}
	srv, _ := newTestServer(t, status)

	_, body := get(t, srv, "/status")
	var got Status
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode /status: %v\n%s", err, body)
	}
	if got.Playback.Track == nil || got.Playback.Track.ID != "42" || !got.Playback.IsPlaying {
		t.Errorf("playback = %+v", got.Playback)
	}
	if len(got.Sources) != 1 || !got.Sources[0].Active {
		t.Errorf("sources = %+v", got.Sources)
	}

	status.err = errors.New("loop busy")
	_, body = get(t, srv, "/status")
	got = Status{}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode /status: %v", err)
	}
	if got.SourcesError != "loop busy" || got.Sources != nil {
		t.Errorf("status = %+v, want sources error only", got)
	}
}

func TestNewSetsAddr(t *testing.T) {
	s := New("127.0.0.1:9464", &fakeStatus{}, prometheus.NewRegistry(), zap.NewNop())
	if s.server.Addr != "127.0.0.1:9464" {
		t.Errorf("Addr = %q", s.server.Addr)
	}
	if s.server.ReadTimeout != readTimeout {
		t.Errorf("ReadTimeout = %v, want %v", s.server.ReadTimeout, readTimeout)
	}
}
