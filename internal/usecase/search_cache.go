package usecase

import (
	"context"
	"time"
)

// SearchCache is the read-through cache used for recommendations and ad hoc
// saved-search results. Implementations may be no-ops.
type SearchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}
