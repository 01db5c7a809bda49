package health

import (
	"context"
	"testing"
	"time"
)

type staticChecker struct {
	name    string
	healthy bool
}

func (c *staticChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: c.name, Healthy: c.healthy}
	if !c.healthy {
		res.Error = "down"
	}
	return res
}

func TestReadyAllHealthy(t *testing.T) {
	runner := NewProbeRunner(time.Second, 0,
		&staticChecker{name: "db", healthy: true},
		&staticChecker{name: "redis", healthy: true},
	)

	ready, results := runner.Ready(context.Background())
	if !ready {
		t.Fatalf("expected ready, got %+v", results)
	}
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}
}

func TestReadyOneUnhealthy(t *testing.T) {
	runner := NewProbeRunner(time.Second, 0,
		&staticChecker{name: "db", healthy: true},
		&staticChecker{name: "redis", healthy: false},
	)

	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("expected not ready")
	}
	var found bool
	for _, res := range results {
		if res.Name == "redis" && !res.Healthy && res.Error == "down" {
			found = true
		}
	}
	if !found {
		t.Fatalf("unhealthy check not reported: %+v", results)
	}
}

func TestReadyDuringGracePeriod(t *testing.T) {
	runner := NewProbeRunner(time.Second, time.Hour,
		&staticChecker{name: "db", healthy: true},
	)

	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("expected not ready during startup grace period")
	}
	if len(results) != 1 || results[0].Name != "startup_grace" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestReadyWithNoCheckers(t *testing.T) {
	runner := NewProbeRunner(time.Second, 0)
	ready, results := runner.Ready(context.Background())
	if !ready || len(results) != 0 {
		t.Fatalf("expected trivially ready, got ready=%v results=%+v", ready, results)
	}
}
