package vsync_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-vsync/vsync"
)

func armChannelSource(t *testing.T, src *vsync.ChannelSource) <-chan delivery {
	t.Helper()
	ch := make(chan delivery, 1)
	_, err := src.RequestVsync(func(start, target time.Time) {
		ch <- delivery{start: start, target: target}
	})
	require.NoError(t, err)
	return ch
}

func requestErr(src *vsync.ChannelSource) error {
	_, err := src.RequestVsync(func(time.Time, time.Time) {})
	return err
}

func TestChannelSource_DeliversArmedTick(t *testing.T) {
	defer leaktest.Check(t)()

	ticks := make(chan time.Time)
	src := vsync.NewChannelSource(ticks, 16*time.Millisecond)
	defer src.Close()

	got := armChannelSource(t, src)
	assert.ErrorIs(t, requestErr(src), vsync.ErrWaitPending)

	tick := time.Unix(10, 0)
	ticks <- tick
	d := expectDelivery(t, got)
	assert.Equal(t, tick, d.start)
	assert.Equal(t, tick.Add(16*time.Millisecond), d.target)

	require.NoError(t, src.Close())
}

func TestChannelSource_DiscardsUnrequestedTicks(t *testing.T) {
	ticks := make(chan time.Time)
	src := vsync.NewChannelSource(ticks, 16*time.Millisecond)
	defer src.Close()

	ticks <- time.Unix(1, 0)
	// let the reader finish with the unrequested tick
	time.Sleep(quietTimeout)

	got := armChannelSource(t, src)
	expectNone(t, got)

	ticks <- time.Unix(2, 0)
	d := expectDelivery(t, got)
	assert.Equal(t, time.Unix(2, 0), d.start)
}

func TestChannelSource_IntervalEstimate(t *testing.T) {
	ticks := make(chan time.Time)
	nominal := 16 * time.Millisecond
	src := vsync.NewChannelSource(ticks, nominal)
	defer src.Close()

	send := func(at time.Time) delivery {
		got := armChannelSource(t, src)
		ticks <- at
		return expectDelivery(t, got)
	}

	t0 := time.Unix(0, 0)
	send(t0)
	assert.Equal(t, nominal, src.Interval())

	// a 20ms gap pulls the estimate an eighth of the way
	d := send(t0.Add(20 * time.Millisecond))
	want := nominal + 4*time.Millisecond/8
	assert.Equal(t, want, src.Interval())
	assert.Equal(t, d.start.Add(want), d.target)

	// a stall is ignored
	send(t0.Add(200 * time.Millisecond))
	assert.Equal(t, want, src.Interval())
}

func TestChannelSource_Closing(t *testing.T) {
	t.Run("closed by owner", func(t *testing.T) {
		defer leaktest.Check(t)()

		src := vsync.NewChannelSource(make(chan time.Time), 0)
		require.NoError(t, src.Close())
		require.NoError(t, src.Close())
		assert.ErrorIs(t, requestErr(src), vsync.ErrSourceClosed)
	})

	t.Run("tick channel closed", func(t *testing.T) {
		ticks := make(chan time.Time)
		src := vsync.NewChannelSource(ticks, 0)
		close(ticks)

		select {
		case <-src.Done():
		case <-time.After(waitTimeout):
			t.Fatal("source did not stop")
		}
		assert.ErrorIs(t, requestErr(src), vsync.ErrSourceClosed)
		assert.NoError(t, src.Close())
	})

	t.Run("nil fire", func(t *testing.T) {
		src := vsync.NewChannelSource(make(chan time.Time), 0)
		defer src.Close()
		_, err := src.RequestVsync(nil)
		assert.ErrorIs(t, err, vsync.ErrNilCallback)
	})
}

func TestSignalWaiter_WithChannelSource(t *testing.T) {
	mock := clock.NewMock()
	r := newRunner(t, mock)
	ticks := make(chan time.Time)
	src := vsync.NewChannelSource(ticks, 10*time.Millisecond)
	defer src.Close()

	w := vsync.NewWaiter(r, src, 0)
	defer w.Close()

	cb, deliveries := recorder()
	for i := 1; i <= 3; i++ {
		require.NoError(t, w.AsyncWaitForVsync(cb))
		tick := time.Unix(0, 0).Add(time.Duration(i) * 10 * time.Millisecond)
		ticks <- tick
		d := expectDelivery(t, deliveries)
		assert.Equal(t, tick, d.start)
		assert.Equal(t, 10*time.Millisecond, d.target.Sub(d.start))
	}
}

func TestChannelSource_Withdraw(t *testing.T) {
	ticks := make(chan time.Time)
	src := vsync.NewChannelSource(ticks, 10*time.Millisecond)
	defer src.Close()

	withdraw, err := src.RequestVsync(func(time.Time, time.Time) {
		t.Error("withdrawn request fired")
	})
	require.NoError(t, err)
	require.NotNil(t, withdraw)

	assert.True(t, withdraw())
	assert.False(t, withdraw())

	// the source is free again, and an old withdraw leaves the new request alone
	got := armChannelSource(t, src)
	assert.False(t, withdraw())

	tick := time.Unix(5, 0)
	ticks <- tick
	assert.Equal(t, tick, expectDelivery(t, got).start)
}

func TestSignalWaiter_CloseReleasesChannelSource(t *testing.T) {
	r := newRunner(t, nil)
	ticks := make(chan time.Time)
	src := vsync.NewChannelSource(ticks, 10*time.Millisecond)
	defer src.Close()

	first := vsync.NewSignalWaiter(r, src)
	stale, staleDeliveries := recorder()
	require.NoError(t, first.AsyncWaitForVsync(stale))
	require.NoError(t, first.Close())

	// a new waiter can arm the same source before any vblank arrives
	second := vsync.NewSignalWaiter(r, src)
	defer second.Close()
	cb, deliveries := recorder()
	require.NoError(t, second.AsyncWaitForVsync(cb))

	tick := time.Unix(7, 0)
	ticks <- tick
	assert.Equal(t, tick, expectDelivery(t, deliveries).start)
	expectNone(t, staleDeliveries)
}
