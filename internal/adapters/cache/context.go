package cache

import (
	"context"
	"time"
)

// Upper bound for resolutions started by callers without a deadline
const maxResolveTime = 30 * time.Second

// detachedContext keeps the values and the deadline of ctx, but is not cancelled with it
func detachedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return context.WithTimeout(detached, maxResolveTime)
}
