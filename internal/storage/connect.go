package storage

import (
	"context"
	"fmt"
	"log"

	"complaintdesk/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// Connect opens the database, runs migrations and, when an address is
// configured, connects to Redis.
func Connect(ctx context.Context, cfg *config.Config) (*Service, error) {
	db, err := Open(cfg.StorageDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.StorageDriver, err)
	}

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	} else {
		log.Println("WARNING: REDIS_ADDR is not set, using in-process locks and event delivery")
	}

	s := NewStorageService(db, rdb)
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Printf("INFO: %s storage ready (redis: %t)", cfg.StorageDriver, rdb != nil)
	return s, nil
}

// Close releases the database and Redis connections.
func (s *Service) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("WARNING: Failed to close Redis client: %v", err)
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("WARNING: Failed to close database: %v", err)
		}
	}
}
