package main

import (
	"context"

	"github.com/turtacn/moldock/internal/infrastructure/database/redis"
	"github.com/turtacn/moldock/internal/infrastructure/storage"
)

// storageHealthAdapter reports object store connectivity by probing one key.
// The probe result itself does not matter; only transport errors count.
type storageHealthAdapter struct {
	store     storage.Store
	probePath string
}

func (a *storageHealthAdapter) Name() string {
	return "storage"
}

func (a *storageHealthAdapter) Check(ctx context.Context) error {
	_, err := a.store.Exists(ctx, a.probePath)
	return err
}

type redisHealthAdapter struct {
	client *redis.Client
}

func (a *redisHealthAdapter) Name() string {
	return "redis"
}

func (a *redisHealthAdapter) Check(ctx context.Context) error {
	return a.client.Ping(ctx)
}
