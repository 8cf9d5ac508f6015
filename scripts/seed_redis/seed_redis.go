package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file — using system environment variables")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisGetEnv("REDIS_ADDR", "localhost:6379"),
		Password: redisGetEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})
	defer client.Close()

	ctx := context.Background()

	fmt.Println("Connecting to Redis...")
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure Redis is running:\n  docker-compose up -d redis", err)
	}
	fmt.Println("✓ Connected")

	step1_truck_registry(ctx, client)
	step2_verify(ctx, client)

	fmt.Println("\n✅ Redis seeded successfully")
	fmt.Println("   Run next: go run ./cmd/monitor")
}

func step1_truck_registry(ctx context.Context, client *redis.Client) {
	fmt.Println("\n── Step 1: Seeding truck registry ──────────────")

	// Key pattern: truck:registry:{truck_id} → trip registration fields.
	// The monitor reads these at startup to register weight profiles.
	// TTL = 0 means permanent — re-seed to change a trip.
	trucks := map[string]map[string]interface{}{
		"truck:registry:TS-JH-1001": {
			"destination":  "Howrah Distribution Center",
			"packaging_kg": 50,
		},
		"truck:registry:TS-JH-1002": {
			"destination":  "Howrah Distribution Center",
			"packaging_kg": 50,
		},
	}

	for key, fields := range trucks {
		if err := client.HSet(ctx, key, fields).Err(); err != nil {
			log.Fatalf("Failed to set key %s: %v", key, err)
		}
		fmt.Printf("  ✓ %-35s → %s\n", key, fields["destination"])
	}
}

func step2_verify(ctx context.Context, client *redis.Client) {
	fmt.Println("\n── Step 2: Verification ────────────────────────")

	keys, err := client.Keys(ctx, "truck:registry:*").Result()
	if err != nil {
		log.Fatalf("Verification failed: %v", err)
	}
	fmt.Printf("  ✓ %d registry entries found in Redis\n", len(keys))

	// Spot check one entry
	dest, err := client.HGet(ctx, "truck:registry:TS-JH-1001", "destination").Result()
	if err != nil {
		log.Fatalf("Spot check failed: %v", err)
	}
	fmt.Printf("  ✓ spot check: truck:registry:TS-JH-1001 → %s\n", dest)
}

func redisGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
