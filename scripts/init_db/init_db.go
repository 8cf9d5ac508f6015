package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "transit_user"),
		dbGetEnv("DB_PASSWORD", "transit_password"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "transit_guard"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to TimescaleDB...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure TimescaleDB is running:\n  docker-compose up -d timescaledb", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_extensions(ctx, conn)
	step2_telemetry_table(ctx, conn)
	step3_stop_events_table(ctx, conn)
	step4_alerts_table(ctx, conn)
	step5_indexes(ctx, conn)
	step6_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run scripts/seed_redis/seed_redis.go")
}

// ─────────────────────────────────────────────────────────────
// Step 1 — Extensions
// ─────────────────────────────────────────────────────────────
func step1_extensions(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: Extensions ──────────────────────────")

	// TimescaleDB — required for hypertable
	execOrFatal(ctx, conn,
		"CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;",
		"timescaledb extension",
	)
}

// ─────────────────────────────────────────────────────────────
// Step 2 — truck_telemetry table
// ─────────────────────────────────────────────────────────────
func step2_telemetry_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: truck_telemetry table ───────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS truck_telemetry (

			-- Time column — TimescaleDB partitions data by this
			timestamp            TIMESTAMPTZ      NOT NULL,

			-- Server receipt time — separate from truck clock
			received_at          TIMESTAMPTZ      NOT NULL DEFAULT NOW(),

			-- Identity
			truck_id             TEXT             NOT NULL,

			-- GPS
			latitude             DOUBLE PRECISION NOT NULL,
			longitude            DOUBLE PRECISION NOT NULL,

			-- Sensor readings
			speed_kmh            DOUBLE PRECISION NOT NULL DEFAULT 0,
			weight_kg            DOUBLE PRECISION NOT NULL DEFAULT 0,

			-- Status flags
			is_moving            BOOLEAN          NOT NULL DEFAULT false,
			in_authorized_zone   BOOLEAN          NOT NULL DEFAULT false,
			zone_name            TEXT,

			-- Scenario tag carried through from the simulator
			scenario             TEXT
		);
	`, "truck_telemetry table created")

	// Partition into 7-day chunks; recent-data queries stay on one chunk
	execOrFatal(ctx, conn, `
		SELECT create_hypertable(
			'truck_telemetry',
			'timestamp',
			if_not_exists => TRUE
		);
	`, "truck_telemetry converted to hypertable")
}

// ─────────────────────────────────────────────────────────────
// Step 3 — stop_events table
// ─────────────────────────────────────────────────────────────
func step3_stop_events_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: stop_events table ───────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS stop_events (

			id               BIGSERIAL        PRIMARY KEY,
			truck_id         TEXT             NOT NULL,
			start_time       TIMESTAMPTZ      NOT NULL,

			-- NULL while the stop is still ongoing
			end_time         TIMESTAMPTZ,

			latitude         DOUBLE PRECISION NOT NULL,
			longitude        DOUBLE PRECISION NOT NULL,
			duration_minutes DOUBLE PRECISION NOT NULL,

			is_authorized    BOOLEAN          NOT NULL DEFAULT false,
			zone_name        TEXT,
			is_suspicious    BOOLEAN          NOT NULL DEFAULT false,
			reason           TEXT,

			created_at       TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);
	`, "stop_events table created")
}

// ─────────────────────────────────────────────────────────────
// Step 4 — escalation_alerts table
// ─────────────────────────────────────────────────────────────
func step4_alerts_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 4: escalation_alerts table ─────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS escalation_alerts (

			id               BIGSERIAL        PRIMARY KEY,

			-- Engine-generated id (ALT-YYYYMMDD-NNNN)
			alert_id         TEXT             NOT NULL UNIQUE,
			truck_id         TEXT             NOT NULL,
			timestamp        TIMESTAMPTZ      NOT NULL,

			-- Must exactly match domain.AlertLevel names
			level            TEXT             NOT NULL,

			-- Must exactly match domain.AlertSource constants
			source           TEXT             NOT NULL,

			title            TEXT             NOT NULL,
			description      TEXT,
			latitude         DOUBLE PRECISION NOT NULL,
			longitude        DOUBLE PRECISION NOT NULL,

			created_at       TIMESTAMPTZ      NOT NULL DEFAULT NOW(),

			CONSTRAINT chk_level CHECK (
				level IN ('NORMAL', 'WATCHLIST', 'WARNING', 'CRITICAL', 'EMERGENCY')
			),

			CONSTRAINT chk_source CHECK (
				source IN ('stop_analyzer', 'weight_analyzer', 'combined')
			)
		);
	`, "escalation_alerts table created")
}

// ─────────────────────────────────────────────────────────────
// Step 5 — Indexes
// ─────────────────────────────────────────────────────────────
func step5_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 5: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_telemetry_truck_time",
			sql: `CREATE INDEX IF NOT EXISTS idx_telemetry_truck_time
				  ON truck_telemetry (truck_id, timestamp DESC);`,
			why: "query: telemetry history for one truck",
		},
		{
			name: "idx_stop_events_truck",
			sql: `CREATE INDEX IF NOT EXISTS idx_stop_events_truck
				  ON stop_events (truck_id, start_time DESC);`,
			why: "query: stop history for one truck",
		},
		{
			name: "idx_stop_events_suspicious",
			sql: `CREATE INDEX IF NOT EXISTS idx_stop_events_suspicious
				  ON stop_events (start_time DESC)
				  WHERE is_suspicious;`,
			why: "query: suspicious stops only (partial index)",
		},
		{
			name: "idx_alerts_truck",
			sql: `CREATE INDEX IF NOT EXISTS idx_alerts_truck
				  ON escalation_alerts (truck_id, created_at DESC);`,
			why: "query: alerts for one truck",
		},
		{
			name: "idx_alerts_level",
			sql: `CREATE INDEX IF NOT EXISTS idx_alerts_level
				  ON escalation_alerts (level, created_at DESC);`,
			why: "query: alerts by level",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-40s ← %s", idx.name, idx.why),
		)
	}
}

// ─────────────────────────────────────────────────────────────
// Step 6 — Verify everything was created
// ─────────────────────────────────────────────────────────────
func step6_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 6: Verification ────────────────────────")

	tables := []string{"truck_telemetry", "stop_events", "escalation_alerts"}
	for _, table := range tables {
		var exists bool
		err := conn.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&exists)
		if err != nil || !exists {
			log.Fatalf("Table %s was not created: %v", table, err)
		}
		fmt.Printf("  ✓ table: %s\n", table)
	}

	var hypertableName string
	err := conn.QueryRow(ctx, `
		SELECT hypertable_name
		FROM timescaledb_information.hypertables
		WHERE hypertable_name = 'truck_telemetry'
	`).Scan(&hypertableName)
	if err != nil {
		log.Fatalf("truck_telemetry is not a hypertable: %v", err)
	}
	fmt.Printf("  ✓ hypertable: %s (time partitioned)\n", hypertableName)

	var indexCount int
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename IN ('truck_telemetry', 'stop_events', 'escalation_alerts')
		AND indexname LIKE 'idx_%'
	`).Scan(&indexCount)
	if err != nil {
		log.Fatalf("Index check failed: %v", err)
	}
	fmt.Printf("  ✓ indexes created: %d\n", indexCount)
}

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

// execOrFatal runs a SQL statement and prints result or exits on error
func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED — %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
