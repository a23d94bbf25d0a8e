package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// AwaitConfig bounds the polling loop.  The delay between attempts starts at
// BaseDelay and doubles up to MaxDelay, so the worst-case total sleep is
// bounded by MaxAttempts * MaxDelay.
type AwaitConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	// MinBytes is the smallest content size accepted as a completed write.
	// Zero accepts any existing content, including empty files.
	MinBytes int `mapstructure:"min_bytes"`
}

// ApplyDefaults fills unset fields with values sized for a storage layer
// whose propagation lag is normally well under a second.
func (c *AwaitConfig) ApplyDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 50
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = time.Second
	}
}

// Awaiter polls a Store path until content appears and passes the size
// check, or the attempt budget runs out.  Exhaustion is a routine outcome of
// storage propagation lag and is reported as a typed error the caller is
// expected to handle, not a crash.
type Awaiter struct {
	store  Store
	cfg    AwaitConfig
	logger logging.Logger

	// sleep is swappable in tests.
	sleep func(context.Context, time.Duration) error
}

// NewAwaiter builds an Awaiter over store with cfg (defaults applied).
func NewAwaiter(store Store, cfg AwaitConfig, log logging.Logger) *Awaiter {
	cfg.ApplyDefaults()
	return &Awaiter{
		store:  store,
		cfg:    cfg,
		logger: log,
		sleep:  sleepCtx,
	}
}

// Await polls path until it resolves to content of at least MinBytes.  It
// returns the content on success and a storage-timeout error after
// MaxAttempts failed polls.
func (a *Awaiter) Await(ctx context.Context, path string) ([]byte, error) {
	delay := a.cfg.BaseDelay

	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		ok, err := a.store.Exists(ctx, path)
		if err != nil {
			return nil, err
		}
		if ok {
			data, err := a.store.Read(ctx, path)
			switch {
			case apperrors.IsNotFound(err):
				// Deleted between the existence check and the read;
				// treat as one more miss.
			case err != nil:
				return nil, err
			case len(data) >= a.cfg.MinBytes:
				if attempt > 1 {
					a.logger.Debug("content became visible",
						logging.String("path", path),
						logging.Int("attempt", attempt))
				}
				return data, nil
			default:
				a.logger.Debug("content below size threshold",
					logging.String("path", path),
					logging.Int("bytes", len(data)),
					logging.Int("attempt", attempt))
			}
		}

		if attempt == a.cfg.MaxAttempts {
			break
		}
		if err := a.sleep(ctx, delay); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageTimeout, "await cancelled for "+path)
		}
		if delay *= 2; delay > a.cfg.MaxDelay {
			delay = a.cfg.MaxDelay
		}
	}

	a.logger.Warn("content never became visible",
		logging.String("path", path),
		logging.Int("max_attempts", a.cfg.MaxAttempts))
	return nil, apperrors.New(apperrors.ErrCodeStorageTimeout,
		fmt.Sprintf("content at %s not visible after %d attempts", path, a.cfg.MaxAttempts))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
