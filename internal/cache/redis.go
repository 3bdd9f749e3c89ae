package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"example.com/fleetdocs/config"
	"example.com/fleetdocs/internal/model"
)

// CacheClient defines the interface for cache operations
type CacheClient interface {
	// Vehicle snapshot caching
	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
	SetVehicle(ctx context.Context, vehicle *model.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error

	// Vehicle lookup by registration
	GetVehicleIDByRegistration(ctx context.Context, registration string) (string, error)
	SetVehicleIDByRegistration(ctx context.Context, registration, id string) error
	DeleteVehicleIDByRegistration(ctx context.Context, registration string) error

	// Clear all cache
	FlushAll(ctx context.Context) error
}

// RedisClient implements CacheClient using Redis
type RedisClient struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg *config.RedisConfig) (CacheClient, error) {
	if !cfg.Enabled {
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:  client,
		enabled: true,
		ttl:     time.Hour, // Default TTL
	}, nil
}

// Prefix keys to avoid collisions
func vehicleKey(id string) string {
	return fmt.Sprintf("vehicle:%s", id)
}

func registrationKey(registration string) string {
	return fmt.Sprintf("vehicle_registration:%s", model.NormalizeRegistration(registration))
}

// GetVehicle retrieves a vehicle snapshot from cache
func (c *RedisClient) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, vehicleKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var vehicle model.Vehicle
	if err := json.Unmarshal(data, &vehicle); err != nil {
		return nil, err
	}

	return &vehicle, nil
}

// SetVehicle caches a vehicle snapshot
func (c *RedisClient) SetVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(vehicle)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, vehicleKey(vehicle.UUID), data, c.ttl).Err()
}

// DeleteVehicle removes a vehicle snapshot from cache
func (c *RedisClient) DeleteVehicle(ctx context.Context, id string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, vehicleKey(id)).Err()
}

// GetVehicleIDByRegistration retrieves a vehicle id by registration
func (c *RedisClient) GetVehicleIDByRegistration(ctx context.Context, registration string) (string, error) {
	if !c.enabled {
		return "", redis.Nil
	}

	return c.client.Get(ctx, registrationKey(registration)).Result()
}

// SetVehicleIDByRegistration caches a registration to vehicle id mapping
func (c *RedisClient) SetVehicleIDByRegistration(ctx context.Context, registration, id string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Set(ctx, registrationKey(registration), id, c.ttl).Err()
}

// DeleteVehicleIDByRegistration removes a registration to vehicle id mapping
func (c *RedisClient) DeleteVehicleIDByRegistration(ctx context.Context, registration string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, registrationKey(registration)).Err()
}

// FlushAll clears all cache
func (c *RedisClient) FlushAll(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	return c.client.FlushAll(ctx).Err()
}
