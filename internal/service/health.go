package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
)

// ServiceHealth is one dependency's status plus its round-trip time in
// milliseconds; Ping is omitted when the check failed.
type ServiceHealth struct {
	Status bool   `json:"status"`
	Ping   *int64 `json:"ping,omitempty"`
}

type HealthReport struct {
	Status   bool          `json:"status"`
	Postgres ServiceHealth `json:"postgres"`
	Redis    ServiceHealth `json:"redis"`
	Location ServiceHealth `json:"thirdParty"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthService probes every external dependency the auth flow relies on.
type HealthService struct {
	db       *sql.DB
	redis    *redis.Client
	location pinger
}

func NewHealthService(db *sql.DB, redisClient *redis.Client, location pinger) *HealthService {
	return &HealthService{
		db:       db,
		redis:    redisClient,
		location: location,
	}
}

func (s *HealthService) Check(ctx context.Context) HealthReport {
	postgres := check(func() error { return s.db.PingContext(ctx) })
	redisHealth := check(func() error { return s.redis.Ping(ctx).Err() })
	location := check(func() error { return s.location.Ping(ctx) })

	return HealthReport{
		Status:   postgres.Status && redisHealth.Status && location.Status,
		Postgres: postgres,
		Redis:    redisHealth,
		Location: location,
	}
}

func check(probe func() error) ServiceHealth {
	start := time.Now()
	if err := probe(); err != nil {
		return ServiceHealth{Status: false}
	}
	ping := time.Since(start).Milliseconds()
	return ServiceHealth{Status: true, Ping: &ping}
}
