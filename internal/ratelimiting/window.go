package ratelimiting

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Amund211/quotelight/internal/domain"
)

var ErrRateLimited = fmt.Errorf("%w: outbound request limit reached", domain.ErrTemporarilyUnavailable)

type RequestLimiter interface {
	// Run operation once it fits in the limit.
	// Returns ErrRateLimited without running operation if it could not finish before the deadline of ctx.
	Do(ctx context.Context, maxOperationTime time.Duration, operation func(ctx context.Context) error) error
}

// WindowLimiter allows at most limit requests to finish within any window.
// At most limit requests run concurrently.
type WindowLimiter struct {
	limit     int
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	slots chan struct{}

	lock sync.Mutex
	// Completion times of the last requests, oldest first.
	// Holds one entry per free slot.
	finished []time.Time
}

func NewWindowLimiter(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *WindowLimiter {
	if limit < 1 {
		panic(fmt.Sprintf("window limiter needs a positive limit, got %d", limit))
	}

	slots := make(chan struct{}, limit)
	finished := make([]time.Time, 0, limit)
	longAgo := nowFunc().Add(-window)
	for range limit {
		slots <- struct{}{}
		finished = append(finished, longAgo)
	}

	return &WindowLimiter{
		limit:     limit,
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,
		slots:     slots,
		finished:  finished,
	}
}

func (l *WindowLimiter) Do(ctx context.Context, maxOperationTime time.Duration, operation func(ctx context.Context) error) error {
	select {
	case <-l.slots:
		defer func() {
			l.slots <- struct{}{}
		}()
	case <-ctx.Done():
		return ctx.Err()
	}

	oldest, wait, err := l.reserve(ctx, maxOperationTime)
	if err != nil {
		return err
	}

	// Give back the reserved entry if we never run
	finishedAt := oldest
	defer func() {
		l.release(finishedAt)
	}()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.afterFunc(wait):
		}
	}

	err = operation(ctx)
	finishedAt = l.nowFunc()
	return err
}

func (l *WindowLimiter) reserve(ctx context.Context, maxOperationTime time.Duration) (time.Time, time.Duration, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.nowFunc()
	oldest := l.finished[0]
	wait := l.window - now.Sub(oldest)

	if deadline, ok := ctx.Deadline(); ok {
		if max(wait, 0)+maxOperationTime > deadline.Sub(now) {
			return time.Time{}, 0, ErrRateLimited
		}
	}

	l.finished = l.finished[1:]
	return oldest, wait, nil
}

func (l *WindowLimiter) release(finishedAt time.Time) {
	l.lock.Lock()
	defer l.lock.Unlock()

	i, _ := slices.BinarySearchFunc(l.finished, finishedAt, time.Time.Compare)
	l.finished = slices.Insert(l.finished, i, finishedAt)
}
