package main

import (
	"context"
	"fmt"
	"time"

	"mergington-activities/internal/audit"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/database"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/notify"
	"mergington-activities/internal/server"

	"go.uber.org/zap"
)

type dependencies struct {
	Sink    audit.Sink
	Recent  server.RecentEvents
	Checks  []server.Check
	closers []func() error
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// retryWithBackoff attempts to execute a function with exponential backoff.
// It stops early with ctx.Err() once ctx is cancelled.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s cancelled: %w", operationName, ctxErr)
		}

		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, i+1, ctx.Err())
			case <-timer.C:
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// buildSinks connects every enabled enrollment sink. A sink that is enabled
// but unreachable at startup is a fatal configuration error.
func buildSinks(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}
	var sinks []audit.Named

	if cfg.Sinks.PostgresAudit.Enabled {
		var pg *database.PostgresClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			return nil
		}, 10, time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, pg.Close)

		if err := pg.EnsureAuditTable(ctx, cfg.Sinks.PostgresAudit.Table); err != nil {
			deps.Close()
			return nil, fmt.Errorf("prepare audit table: %w", err)
		}

		sinks = append(sinks, audit.Named{Name: "postgres", Sink: audit.NewPostgresSink(pg.DB, cfg.Sinks.PostgresAudit.Table)})
		deps.Checks = append(deps.Checks, server.Check{Name: "postgres", Fn: pg.Ping})
		zapLog.Info("PostgreSQL audit sink enabled", zap.String("table", cfg.Sinks.PostgresAudit.Table))
	}

	if cfg.Sinks.RedisEvents.Enabled {
		var rdb *database.RedisClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rdb.Ping(ctx); err != nil {
				_ = rdb.Close()
				return err
			}
			return nil
		}, 10, time.Second, zapLog, "Redis connection")
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, rdb.Close)

		redisSink := audit.NewRedisSink(rdb.Client, audit.RedisSinkConfig{
			Channel:     cfg.Sinks.RedisEvents.Channel,
			RecentKey:   cfg.Sinks.RedisEvents.RecentKey,
			RecentLimit: cfg.Sinks.RedisEvents.RecentLimit,
		})
		sinks = append(sinks, audit.Named{Name: "redis", Sink: redisSink})
		deps.Recent = redisSink
		deps.Checks = append(deps.Checks, server.Check{Name: "redis", Fn: rdb.Ping})
		zapLog.Info("Redis event sink enabled", zap.String("channel", cfg.Sinks.RedisEvents.Channel))
	}

	if cfg.Sinks.Email.Enabled {
		notifier, err := notify.NewSESNotifier(ctx, &notify.Config{
			FromEmail: cfg.Sinks.Email.FromEmail,
			Region:    cfg.Sinks.Email.Region,
		}, log)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("email sink: %w", err)
		}
		sinks = append(sinks, audit.Named{Name: "email", Sink: notifier})
		zapLog.Info("SES confirmation emails enabled", zap.String("from", cfg.Sinks.Email.FromEmail))
	}

	if len(sinks) == 0 {
		deps.Sink = audit.Nop{}
		zapLog.Info("no enrollment sinks configured")
		return deps, nil
	}
	deps.Sink = audit.NewMulti(sinks...)
	return deps, nil
}
