package vsync_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-vsync/vsync"
	"github.com/valerio/go-vsync/vsync/runner"
)

const (
	waitTimeout  = 2 * time.Second
	quietTimeout = 30 * time.Millisecond
)

type delivery struct {
	start  time.Time
	target time.Time
}

func newRunner(t *testing.T, clk clock.Clock) *runner.TaskRunner {
	t.Helper()
	r := runner.New("vsync-test", clk)
	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(r.Stop)
	return r
}

// flush waits until every task posted so far has run.
func flush(t *testing.T, r *runner.TaskRunner) {
	t.Helper()
	require.NoError(t, r.RunSync(context.Background(), func() {}))
}

func recorder() (vsync.Callback, chan delivery) {
	ch := make(chan delivery, 16)
	return func(start, target time.Time) {
		ch <- delivery{start: start, target: target}
	}, ch
}

func expectDelivery(t *testing.T, ch <-chan delivery) delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(waitTimeout):
		t.Fatal("vsync callback was not invoked")
		return delivery{}
	}
}

func expectNone(t *testing.T, ch <-chan delivery) {
	t.Helper()
	select {
	case d := <-ch:
		t.Fatalf("unexpected vsync callback: %+v", d)
	case <-time.After(quietTimeout):
	}
}
