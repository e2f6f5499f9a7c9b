// Package dedup collapses concurrent identical requests into one in-flight call.
//
// A Group memoizes work only while it is running: once the call returns,
// successfully or not, its entry is gone and the next call with the same key
// performs a fresh operation. Nothing is cached after settlement, so a failed
// request never blocks later retries.
package dedup

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Group deduplicates in-flight calls by key. The zero value is ready to use.
type Group[T any] struct {
	sf      singleflight.Group
	running atomic.Int64
}

// Do runs fn once for all concurrent callers sharing key and returns its
// result to each of them. shared is true when the result was delivered to
// more than one caller.
//
// fn receives a context detached from the caller's cancellation, because the
// call may be serving other waiters; fn is responsible for its own timeout.
// If ctx is cancelled first, Do returns ctx.Err() without aborting fn.
func (g *Group[T]) Do(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (T, bool, error) {
	detached := context.WithoutCancel(ctx)
	ch := g.sf.DoChan(key, func() (any, error) {
		g.running.Add(1)
		defer g.running.Add(-1)
		return fn(detached)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		v, ok := res.Val.(T)
		if !ok && res.Val != nil {
			return zero, res.Shared, fmt.Errorf("dedup: unexpected result type %T for key %q", res.Val, key)
		}
		return v, res.Shared, nil
	}
}

// Forget drops the pending entry for key. Calls already waiting keep their
// result; the next Do with key starts a new call.
func (g *Group[T]) Forget(key string) {
	g.sf.Forget(key)
}

// Pending returns the number of calls currently executing.
func (g *Group[T]) Pending() int {
	return int(g.running.Load())
}

// SearchKey is the dedup key for a catalog search page.
func SearchKey(query string, offset int, kind string) string {
	return "search:" + query + ":" + strconv.Itoa(offset) + ":" + kind
}

// StreamKey is the dedup key for stream URL resolution.
func StreamKey(trackID int64) string {
	return "stream:" + strconv.FormatInt(trackID, 10)
}
