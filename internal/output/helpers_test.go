package output

import (
	"errors"
	"time"

	"github.com/wesleyorama2/swarm/internal/runner"
	"github.com/wesleyorama2/swarm/internal/stats"
)

func sampleResult() *runner.Result {
	c := stats.NewCollector()
	for i := 0; i < 8; i++ {
		c.RecordSuccess("GET", "/", time.Duration(10+i)*time.Millisecond, 512)
	}
	c.RecordFailure("GET", "/", 40*time.Millisecond, errors.New("GET /: unexpected status 500 Internal Server Error"))
	c.RecordFailure("GET", "/", 45*time.Millisecond, errors.New("GET /: unexpected status 500 Internal Server Error"))
	c.RecordFailure("POST", "/login", 5*time.Millisecond, errors.New("connection refused"))

	return &runner.Result{
		ID:               "0b7e2f53-4c9e-4d9b-8a57-0f6d3c1e9a10",
		Name:             "website",
		Host:             "http://localhost:8089",
		StartTime:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration:         2 * time.Second,
		UsersSpawned:     3,
		SetupFailures:    1,
		TeardownFailures: 0,
		Stats:            c.Snapshot(),
	}
}
