package config

import (
	"context"
	"fmt"
	"log"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var DB *pgxpool.Pool

func ConnectDB() {
	user := GetEnv("DB_USER", "postgres")
	pass := GetEnv("DB_PASSWORD", "password")
	host := GetEnv("DB_HOST", "localhost")
	port := GetEnv("DB_PORT", "5432")
	name := GetEnv("DB_NAME", "optimile_db")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatalf("❌ Unable to parse DB config: %v", err)
	}

	// Bid bursts at lane close are the hot path; size the pool for them.
	config.MaxConns = 40
	config.MinConns = 5
	config.MaxConnIdleTime = 2 * time.Minute
	config.MaxConnLifetime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute
	config.ConnConfig.ConnectTimeout = 10 * time.Second

	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		// numeric columns scan straight into decimal.Decimal
		pgxdecimal.Register(conn.TypeMap())
		_, err := conn.Exec(ctx, "SET statement_timeout = 10000")
		return err
	}

	DB, err = pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatalf("❌ Unable to connect to database: %v", err)
	}

	if err := DB.Ping(context.Background()); err != nil {
		log.Fatalf("❌ Database ping failed: %v", err)
	}

	log.Println("✅ Database connected")
}

func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Println("✅ Database pool closed")
	}
}
