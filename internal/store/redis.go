package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"transit-guard/monitor/internal/config"
	"transit-guard/monitor/internal/domain"
)

const (
	alertChannel     = "trucks:alerts"
	telemetryChannel = "trucks:telemetry"
	geoKey           = "trucks:geo"

	stateTTL = 30 * time.Second
	dedupTTL = 5 * time.Minute
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// PipelineStateUpdate refreshes the live dashboard state for one truck:
// state hash with TTL, geo index, and a pub/sub fan-out.
func (r *RedisStore) PipelineStateUpdate(ctx context.Context, reading domain.Reading) error {
	stateData := map[string]interface{}{
		"truck_id":           reading.TruckID,
		"lat":                reading.Latitude,
		"lng":                reading.Longitude,
		"speed_kmh":          reading.SpeedKmh,
		"weight_kg":          reading.WeightKg,
		"is_moving":          reading.IsMoving,
		"in_authorized_zone": reading.InAuthorizedZone,
		"zone_name":          reading.ZoneName,
		"timestamp":          reading.Timestamp.Unix(),
	}

	pubPayload, err := json.Marshal(stateData)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	stateKey := fmt.Sprintf("truck:%s:state", reading.TruckID)

	pipe := r.client.Pipeline()

	pipe.HSet(ctx, stateKey, stateData)
	pipe.Expire(ctx, stateKey, stateTTL)
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      reading.TruckID,
		Longitude: reading.Longitude,
		Latitude:  reading.Latitude,
	})
	pipe.Publish(ctx, telemetryChannel, pubPayload)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}

	return nil
}

// CheckAlertDedup reports whether an alert of this kind fired recently for
// the truck. Implements engine.Deduper.
func (r *RedisStore) CheckAlertDedup(ctx context.Context, truckID, kind string) (bool, error) {
	key := fmt.Sprintf("alert:%s:%s", truckID, kind)
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return count > 0, nil
}

func (r *RedisStore) SetAlertDedup(ctx context.Context, truckID, kind string) error {
	key := fmt.Sprintf("alert:%s:%s", truckID, kind)
	return r.client.Set(ctx, key, "1", dedupTTL).Err()
}

// PublishAlert pushes a raw alert payload to the live alert channel.
func (r *RedisStore) PublishAlert(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, alertChannel, payload).Err()
}

// DeliverAlert publishes an escalation alert to subscribers. Implements
// engine.AlertSink.
func (r *RedisStore) DeliverAlert(ctx context.Context, a domain.Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	return r.PublishAlert(ctx, payload)
}

// GetTruckRegistration returns the seeded registry entry for a truck, used
// to fill in destination and tare at trip registration.
func (r *RedisStore) GetTruckRegistration(ctx context.Context, truckID string) (destination string, packagingKg float64, err error) {
	key := fmt.Sprintf("truck:registry:%s", truckID)
	vals, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return "", 0, fmt.Errorf("redis registry lookup failed: %w", err)
	}
	if len(vals) == 0 {
		return "", 0, nil
	}

	destination = vals["destination"]
	if raw, ok := vals["packaging_kg"]; ok {
		if parsed, perr := strconv.ParseFloat(raw, 64); perr == nil {
			packagingKg = parsed
		}
	}
	return destination, packagingKg, nil
}
