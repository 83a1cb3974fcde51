package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/fish-activity/internal/weather"
)

type recordingRefresher struct {
	mu    sync.Mutex
	calls map[string]int
	days  []int
	fail  string
}

func (r *recordingRefresher) Refresh(_ context.Context, loc weather.Location, days int) (weather.Forecast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[loc.Key()]++
	r.days = append(r.days, days)
	if loc.Key() == r.fail {
		return weather.Forecast{}, errors.New("provider down")
	}
	return weather.Forecast{Location: loc}, nil
}

func (r *recordingRefresher) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[key]
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestScheduler_RunOnce(t *testing.T) {
	bologna := weather.Location{Latitude: 44.59, Longitude: 11.34}
	milan := weather.Location{Latitude: 45.46, Longitude: 9.19}
	ref := &recordingRefresher{fail: milan.Key()}

	s := New([]weather.Location{bologna, milan}, 5, time.Hour, ref, quietLogger())
	s.RunOnce()

	assert.Equal(t, 1, ref.count(bologna.Key()))
	assert.Equal(t, 1, ref.count(milan.Key()))
	assert.Equal(t, []int{5, 5}, ref.days)
}

func TestScheduler_StartRunsImmediately(t *testing.T) {
	bologna := weather.Location{Latitude: 44.59, Longitude: 11.34}
	ref := &recordingRefresher{}

	s := New([]weather.Location{bologna}, 7, time.Hour, ref, quietLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return ref.count(bologna.Key()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_NoLocations(t *testing.T) {
	ref := &recordingRefresher{}
	s := New(nil, 7, time.Hour, ref, quietLogger())

	require.NoError(t, s.Start())
	s.Stop()
	assert.Empty(t, ref.calls)
}

func TestScheduler_ShortIntervalIsReported(t *testing.T) {
	log, hook := test.NewNullLogger()
	bologna := weather.Location{Latitude: 44.59, Longitude: 11.34}

	s := New([]weather.Location{bologna}, 7, 30*time.Second, &recordingRefresher{}, log)
	require.NoError(t, s.Start())
	defer s.Stop()

	var warned *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = e
		}
	}
	require.NotNil(t, warned)
	assert.Equal(t, "30s", warned.Data["requested"])
	assert.Equal(t, "30m0s", warned.Data["using"])
}
