package patterns

import (
	"context"
	"time"
)

// WithTimeout bounds ctx by duration; a non-positive duration leaves ctx unbounded
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, duration)
}

// DefaultTimeout is the default budget for one persistence call
const DefaultTimeout = 5 * time.Second

// DefaultBulkheadWait is how long a call waits for a free bulkhead slot
const DefaultBulkheadWait = time.Second
