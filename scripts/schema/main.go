// Command schema creates the service's derived tables. Host tables are
// never touched; run once against the reporting database before first
// start, or with -drop to rebuild from scratch.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/campuspulse/engagement-api/pkg/config"
	"github.com/campuspulse/engagement-api/pkg/database"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS frequency_events (
		id BIGSERIAL PRIMARY KEY,
		module TEXT NOT NULL,
		instance_id BIGINT NOT NULL,
		course_id BIGINT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		time_open BIGINT NOT NULL,
		day INT NOT NULL,
		month INT NOT NULL,
		year INT NOT NULL,
		scope TEXT NOT NULL,
		participants INT NOT NULL DEFAULT 0,
		user_id BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_frequency_events_instance ON frequency_events (module, instance_id)`,
	`CREATE INDEX IF NOT EXISTS idx_frequency_events_time ON frequency_events (year, month, day)`,
	`CREATE INDEX IF NOT EXISTS idx_frequency_events_open ON frequency_events (time_open)`,

	`CREATE TABLE IF NOT EXISTS trend_snapshots (
		id BIGSERIAL PRIMARY KEY,
		module TEXT NOT NULL,
		instance_id BIGINT NOT NULL,
		not_logged_in INT NOT NULL DEFAULT 0,
		logged_in INT NOT NULL DEFAULT 0,
		in_progress INT NOT NULL DEFAULT 0,
		finished INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trend_snapshots_instance ON trend_snapshots (module, instance_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS activity_participants (
		module TEXT NOT NULL,
		instance_id BIGINT NOT NULL,
		course_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_participants_instance ON activity_participants (module, instance_id)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS frequency_events`,
	`DROP TABLE IF EXISTS trend_snapshots`,
	`DROP TABLE IF EXISTS activity_participants`,
}

func main() {
	var (
		drop    bool
		timeout time.Duration
	)
	flag.BoolVar(&drop, "drop", false, "drop the derived tables before creating them")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "statement timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if drop {
		for _, stmt := range dropStatements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				log.Fatalf("drop failed: %v", err)
			}
		}
		log.Println("derived tables dropped")
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("create failed: %v", err)
		}
	}
	log.Println("derived tables ready")
}
