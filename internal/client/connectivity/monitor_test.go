package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProber struct {
	mu  sync.Mutex
	err error
	n   atomic.Int32
}

func (f *fakeProber) Ping(ctx context.Context) error {
	f.n.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeProber) set(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func TestSetOnline_FiresOnRisingEdgeOnly(t *testing.T) {
	m := NewMonitor(&fakeProber{}, time.Second, logging.Nop())
	ctx := context.Background()

	var fired int
	m.OnOnline(func(context.Context) { fired++ })

	assert.False(t, m.IsOnline())
	assert.True(t, m.SetOnline(ctx, true))
	assert.False(t, m.SetOnline(ctx, true))
	assert.Equal(t, 1, fired)

	assert.True(t, m.SetOnline(ctx, false))
	assert.Equal(t, 1, fired)
	assert.False(t, m.IsOnline())

	m.SetOnline(ctx, true)
	assert.Equal(t, 2, fired)
}

func TestCheck_FollowsProbe(t *testing.T) {
	p := &fakeProber{}
	m := NewMonitor(p, time.Second, logging.Nop())
	ctx := context.Background()

	assert.True(t, m.Check(ctx))
	assert.True(t, m.IsOnline())

	p.set(errors.New("down"))
	assert.False(t, m.Check(ctx))
	assert.False(t, m.IsOnline())
}

func TestRun_PollsAndStops(t *testing.T) {
	p := &fakeProber{}
	p.set(errors.New("down"))
	m := NewMonitor(p, 5*time.Millisecond, logging.Nop())

	var fired atomic.Int32
	m.OnOnline(func(context.Context) { fired.Add(1) })

	stop := m.Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool { return p.n.Load() >= 2 }, time.Second, time.Millisecond)
	assert.False(t, m.IsOnline())

	p.set(nil)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, m.IsOnline())
}

func TestStart_StopWaitsForExit(t *testing.T) {
	m := NewMonitor(&fakeProber{}, time.Hour, logging.Nop())
	stop := m.Start(context.Background())
	require.Eventually(t, m.IsOnline, time.Second, time.Millisecond)
	stop()
}
