package devserve

import (
	"context"
	"sync"
	"testing"

	"github.com/tychoish/devserve/testutil"
)

func TestMain(m *testing.M) {
	testutil.HelperMain(m)
}

type recordingReclaimer struct {
	mu    sync.Mutex
	ports []int
}

func (r *recordingReclaimer) Reclaim(_ context.Context, port int) ReclaimReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ports = append(r.ports, port)
	return ReclaimReport{Port: port}
}

func (r *recordingReclaimer) Ports() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.ports))
	copy(out, r.ports)
	return out
}

// gatedReclaimer blocks every reclaim until release is closed, so tests
// can observe a process while it is starting.
type gatedReclaimer struct {
	entered chan struct{}
	release chan struct{}
}

func newGatedReclaimer() *gatedReclaimer {
	return &gatedReclaimer{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (r *gatedReclaimer) Reclaim(ctx context.Context, port int) ReclaimReport {
	select {
	case r.entered <- struct{}{}:
	default:
	}
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return ReclaimReport{Port: port}
}
