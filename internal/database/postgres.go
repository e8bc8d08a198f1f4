package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"FitAI_V1.0/internal/dietplan"
)

const createPlansTable = `
CREATE TABLE IF NOT EXISTS diet_plans (
	email      TEXT        NOT NULL,
	created_at TEXT        NOT NULL,
	plan       JSONB       NOT NULL,
	stored_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (email, created_at)
)`

const upsertPlan = `
INSERT INTO diet_plans (email, created_at, plan)
VALUES ($1, $2, $3)
ON CONFLICT (email, created_at) DO UPDATE SET plan = EXCLUDED.plan`

// created_at holds fixed-width UTC timestamps, so text order is time order.
const (
	selectPlansNewest = `SELECT email, created_at, plan FROM diet_plans WHERE email = $1 ORDER BY created_at DESC`
	selectPlansOldest = `SELECT email, created_at, plan FROM diet_plans WHERE email = $1 ORDER BY created_at ASC`
)

// PostgresPlanStore keeps plans in a single jsonb table.
type PostgresPlanStore struct {
	Dbpool *pgxpool.Pool
}

// NewPostgresPlanStore connects and creates the table if needed.
func NewPostgresPlanStore(ctx context.Context, connStr string) (*PostgresPlanStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	s := &PostgresPlanStore{Dbpool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresPlanStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.Dbpool.Exec(ctx, createPlansTable); err != nil {
		return fmt.Errorf("create diet_plans: %w", err)
	}
	return nil
}

func (s *PostgresPlanStore) Put(ctx context.Context, email, createdAt string, plan dietplan.DietPlan) error {
	body, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if _, err := s.Dbpool.Exec(ctx, upsertPlan, email, createdAt, body); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *PostgresPlanStore) Query(ctx context.Context, email string, newestFirst bool) ([]dietplan.PlanRecord, error) {
	query := selectPlansOldest
	if newestFirst {
		query = selectPlansNewest
	}

	rows, err := s.Dbpool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (dietplan.PlanRecord, error) {
		var (
			rec  dietplan.PlanRecord
			body []byte
		)
		if err := row.Scan(&rec.Email, &rec.CreatedAt, &body); err != nil {
			return rec, err
		}
		if err := json.Unmarshal(body, &rec.Plan); err != nil {
			return rec, fmt.Errorf("decode plan %s/%s: %w", rec.Email, rec.CreatedAt, err)
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan plans: %w", err)
	}
	return records, nil
}

// Health checks the health of the database connection.
func (s *PostgresPlanStore) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	stats := map[string]string{"backend": "postgres"}

	if err := s.Dbpool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Error().Err(err).Msg("db down")
		return stats
	}

	poolStats := s.Dbpool.Stat()
	stats["status"] = "up"
	stats["total_conns"] = strconv.Itoa(int(poolStats.TotalConns()))
	stats["idle_conns"] = strconv.Itoa(int(poolStats.IdleConns()))
	stats["acquired_conns"] = strconv.Itoa(int(poolStats.AcquiredConns()))
	stats["max_conns"] = strconv.Itoa(int(poolStats.MaxConns()))
	stats["acquire_count"] = strconv.FormatInt(poolStats.AcquireCount(), 10)
	stats["acquire_duration_ms"] = strconv.FormatInt(poolStats.AcquireDuration().Milliseconds(), 10)
	stats["empty_acquire_count"] = strconv.FormatInt(poolStats.EmptyAcquireCount(), 10)

	if poolStats.AcquiredConns() > (poolStats.MaxConns() * 8 / 10) { // 80% capacity
		stats["message"] = "The database connection pool is experiencing heavy load."
	}
	if poolStats.EmptyAcquireCount() > 0 {
		stats["message"] = "The application has tried to acquire a connection from an empty pool. Consider increasing max connections."
	}

	return stats
}

func (s *PostgresPlanStore) Close() {
	log.Info().Msg("Disconnected from database")
	s.Dbpool.Close()
}
