package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	ttlcache "github.com/jellydator/ttlcache/v2"
)

// Kinds of outstanding device requests.
const (
	KindPoll = "poll"
	KindPump = "pump"
)

// Func is the body of a task. ctx is cancelled when the task is cancelled, expires or the registry closes.
type Func func(ctx context.Context, id string)

type entry struct {
	kind    string
	started time.Time
	cancel  context.CancelFunc
}

// Info describes an outstanding task.
type Info struct {
	ID      string
	Kind    string
	Started time.Time
}

// Registry runs fire-and-forget tasks keyed by request id.
// With a non-zero ttl, entries that outlive it are evicted and their context cancelled.
type Registry struct {
	cache *ttlcache.Cache

	mu     sync.Mutex // guards closed and wg.Add against Close
	closed bool
	wg     sync.WaitGroup
}

// NewRegistry builds a registry. ttl == 0 keeps tasks until they finish.
func NewRegistry(ttl time.Duration) *Registry {
	c := ttlcache.NewCache()
	c.SkipTTLExtensionOnHit(true)
	c.SetExpirationCallback(func(_ string, value interface{}) {
		if e, ok := value.(*entry); ok {
			e.cancel()
		}
	})
	if ttl > 0 {
		_ = c.SetTTL(ttl)
	}
	return &Registry{cache: c}
}

// Start runs fn in its own goroutine and returns the request id assigned to it.
// After Close nothing is run and the id is empty.
func (r *Registry) Start(parent context.Context, kind string, fn Func) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ""
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(parent)
	e := &entry{kind: kind, started: time.Now(), cancel: cancel}
	_ = r.cache.Set(id, e)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.finish(id, cancel)
		fn(ctx, id)
	}()
	return id
}

func (r *Registry) finish(id string, cancel context.CancelFunc) {
	_ = r.cache.Remove(id)
	cancel()
}

// Cancel cancels the task with the given id. It reports whether the task was outstanding.
func (r *Registry) Cancel(id string) bool {
	v, err := r.cache.Get(id)
	if err != nil {
		return false
	}
	v.(*entry).cancel()
	return true
}

// Outstanding lists tasks that have not finished yet.
func (r *Registry) Outstanding() []Info {
	items := r.cache.GetItems()
	out := make([]Info, 0, len(items))
	for id, v := range items {
		e := v.(*entry)
		out = append(out, Info{ID: id, Kind: e.kind, Started: e.started})
	}
	return out
}

// Len is the number of outstanding tasks.
func (r *Registry) Len() int {
	return r.cache.Count()
}

// Close cancels every outstanding task, waits for them to return and stops the expiry worker.
// Later calls are no-ops.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	for _, v := range r.cache.GetItems() {
		v.(*entry).cancel()
	}
	r.wg.Wait()
	return r.cache.Close()
}
