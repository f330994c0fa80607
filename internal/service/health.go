package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LuisLuna810/coolify-managment-back/kvstore"
)

// CheckStatus is the outcome of one health probe.
type CheckStatus struct {
	Status        string `json:"status"`
	LatencyMillis int64  `json:"latencyMs"`
	Error         string `json:"error,omitempty"`
}

// HealthReport summarizes the gateway's dependencies.
type HealthReport struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Redis     CheckStatus `json:"redis"`
	Cache     CheckStatus `json:"cache"`
}

// HealthService probes the cache store. The ping check covers connectivity,
// the cache check covers a full serialize, write, read, compare cycle.
type HealthService struct {
	store *kvstore.Store
}

// NewHealthService constructs the health service.
func NewHealthService(store *kvstore.Store) *HealthService {
	return &HealthService{store: store}
}

// Check runs every probe and reports "ok" only when all of them pass.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Redis:     s.ping(ctx),
		Cache:     s.roundtrip(ctx),
	}
	if report.Redis.Status != "ok" || report.Cache.Status != "ok" {
		report.Status = "degraded"
	}
	return report
}

func (s *HealthService) ping(ctx context.Context) CheckStatus {
	start := time.Now()
	if err := s.store.Ping(ctx); err != nil {
		return CheckStatus{Status: "down", LatencyMillis: time.Since(start).Milliseconds(), Error: err.Error()}
	}
	return CheckStatus{Status: "ok", LatencyMillis: time.Since(start).Milliseconds()}
}

func (s *HealthService) roundtrip(ctx context.Context) CheckStatus {
	type probe struct {
		Nonce string `json:"nonce"`
	}
	key := "health:probe:" + uuid.NewString()
	want := probe{Nonce: uuid.NewString()}

	start := time.Now()
	if err := s.store.SetJSON(ctx, key, want, 10*time.Second); err != nil {
		return CheckStatus{Status: "down", LatencyMillis: time.Since(start).Milliseconds(), Error: err.Error()}
	}
	var got probe
	if err := s.store.GetJSON(ctx, key, &got); err != nil {
		return CheckStatus{Status: "down", LatencyMillis: time.Since(start).Milliseconds(), Error: err.Error()}
	}
	_, _ = s.store.Del(ctx, key)
	if got.Nonce != want.Nonce {
		return CheckStatus{Status: "down", LatencyMillis: time.Since(start).Milliseconds(), Error: "roundtrip mismatch"}
	}
	return CheckStatus{Status: "ok", LatencyMillis: time.Since(start).Milliseconds()}
}
