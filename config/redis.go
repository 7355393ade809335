package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	RedisMain *redis.Client
	Ctx       = context.Background()
)

func ConnectRedis() {
	host := GetEnv("REDIS_HOST", "127.0.0.1")
	port := GetEnv("REDIS_PORT", "6379")
	addr := fmt.Sprintf("%s:%s", host, port)

	RedisMain = redis.NewClient(&redis.Options{
		Addr:            addr,
		MaxRetries:      5,
		DialTimeout:     10 * time.Second,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		PoolSize:        50,
		MinIdleConns:    10,
		ConnMaxIdleTime: 5 * time.Minute,
	})

	if _, err := RedisMain.Ping(Ctx).Result(); err != nil {
		log.Fatalf("❌ Redis connection failed: %v", err)
	}

	log.Println("✅ Redis connected")
}

func CloseRedis() {
	if RedisMain != nil {
		RedisMain.Close()
	}
	log.Println("✅ Redis connection closed")
}
