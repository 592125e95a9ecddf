package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestStateDefaults(t *testing.T) {
	state := NewState()
	require.True(t, state.Healthy())
	require.True(t, state.LastCheck().IsZero())

	now := time.Now()
	state.MarkUnhealthy(now)
	require.False(t, state.Healthy())
	require.Equal(t, now.UnixNano(), state.LastCheck().UnixNano())

	state.MarkHealthy(now.Add(time.Second))
	require.True(t, state.Healthy())
}

func TestMonitorFiresFatalAfterThreshold(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	state := NewState()
	fatal := make(chan error, 2)
	monitor := NewMonitor(MonitorConfig{
		URL:       server.URL + "/api/test",
		Interval:  10 * time.Millisecond,
		Threshold: 3,
		Timeout:   time.Second,
	}, state, func(err error) { fatal <- err }, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		monitor.Run(context.Background())
		close(done)
	}()

	select {
	case err := <-fatal:
		require.ErrorContains(t, err, "3 times")
	case <-time.After(5 * time.Second):
		t.Fatal("fatal hook was not called")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor kept running after fatal hook")
	}

	require.False(t, state.Healthy())
	require.Equal(t, int32(3), hits.Load())
	require.Empty(t, fatal)
}

func TestMonitorResetsFailuresOnRecovery(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every other probe fails, so the threshold of two is never reached.
		if hits.Add(1)%2 == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	state := NewState()
	var fired atomic.Bool
	monitor := NewMonitor(MonitorConfig{
		URL:       server.URL,
		Interval:  5 * time.Millisecond,
		Threshold: 2,
	}, state, func(error) { fired.Store(true) }, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return hits.Load() >= 6 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	require.False(t, fired.Load())
	require.True(t, state.Healthy())
	require.False(t, state.LastCheck().IsZero())
}

func TestPingerRequestsPublicHealthRoute(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			hits.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pinger := NewPinger(server.URL, 5*time.Millisecond, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pinger.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return hits.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pinger did not stop after cancellation")
	}
}

func TestProbeRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := Probe(context.Background(), server.Client(), server.URL)
	require.ErrorContains(t, err, "500")
}
