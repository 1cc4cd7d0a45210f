package session

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Session is one logged in device counted against a plan's usage limit
type Session struct {
	CustomerID string          `json:"customer_id"`
	DeviceID   string          `json:"device_id"`
	IPAddress  string          `json:"ip_address"`
	LoginTime  time.Time       `json:"login_time"`
	LoginType  types.LoginType `json:"login_type"`
}

// Registry tracks active sessions per customer.
// Sessions are keyed by device: adding a session for a device that is already
// registered replaces that entry instead of adding a second one.
type Registry interface {
	// Count returns the number of active sessions of a customer
	Count(ctx context.Context, customerID string) (int, error)

	// List returns the active sessions of a customer, oldest login first
	List(ctx context.Context, customerID string) ([]*Session, error)

	// TryAdd registers the session when the customer holds fewer than limit
	// sessions, or when the device is already registered. A limit <= 0 means
	// unlimited. It returns whether the session was added and the resulting count.
	TryAdd(ctx context.Context, s *Session, limit int) (bool, int, error)

	// Add registers the session without checking any limit
	Add(ctx context.Context, s *Session) error

	// Remove drops the session of a device and reports whether it existed
	Remove(ctx context.Context, customerID, deviceID string) (bool, error)
}

// NewRegistry returns the registry selected by session.backend
func NewRegistry(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (Registry, error) {
	if cfg.Session.Backend != types.SessionBackendRedis {
		log.Infow("using in-memory session registry")
		return NewMemoryRegistry(), nil
	}

	opts, err := redis.ParseURL(cfg.Session.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	log.Infow("using redis session registry", "addr", opts.Addr)
	return NewRedisRegistry(client, log), nil
}

func cloneSession(s *Session) *Session {
	c := *s
	return &c
}

func sortByLoginTime(sessions []*Session) {
	slices.SortFunc(sessions, func(a, b *Session) int {
		if c := a.LoginTime.Compare(b.LoginTime); c != 0 {
			return c
		}
		return strings.Compare(a.DeviceID, b.DeviceID)
	})
}
