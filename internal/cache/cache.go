package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache is a process local store for read mostly catalog data such as plans.
// Implementations are safe for concurrent use and a miss is never an error.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores value under key. A zero ttl falls back to the cache default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)

	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
	Flush(ctx context.Context)
}

// PrefixPlan namespaces plan catalog entries
const PrefixPlan = "billing:plan"

// GenerateKey builds prefix:param1:param2...
func GenerateKey(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}
