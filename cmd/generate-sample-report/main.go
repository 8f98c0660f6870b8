package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/wesleyorama2/swarm/internal/output"
	"github.com/wesleyorama2/swarm/internal/runner"
	"github.com/wesleyorama2/swarm/internal/stats"
)

func main() {
	result := createSampleResult()

	outputPath := "sample-report.html"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	if err := output.GenerateHTML(result, outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sample report generated: %s\n", outputPath)
}

// createSampleResult fakes a ten minute run of the website scenario.
func createSampleResult() *runner.Result {
	rng := rand.New(rand.NewSource(42))
	collector := stats.NewCollector()

	for i := 0; i < 50; i++ {
		collector.RecordSuccess("POST", "/login", time.Duration(80+rng.Intn(60))*time.Millisecond, 0)
		collector.RecordSuccess("POST", "/logout", time.Duration(20+rng.Intn(20))*time.Millisecond, 0)
	}

	serverErr := errors.New("GET /: unexpected status 503 Service Unavailable")
	for i := 0; i < 4800; i++ {
		latency := time.Duration(25+rng.ExpFloat64()*40) * time.Millisecond
		if rng.Float64() < 0.012 {
			collector.RecordFailure("GET", "/", latency, serverErr)
			continue
		}
		collector.RecordSuccess("GET", "/", latency, int64(14000+rng.Intn(2000)))
	}

	return &runner.Result{
		ID:               "3f1c9a52-8d2e-4b7a-9c61-5e0f2a7d4b18",
		Name:             "website",
		Host:             "https://www.example.com",
		StartTime:        time.Now().Add(-10 * time.Minute),
		Duration:         10 * time.Minute,
		UsersSpawned:     50,
		SetupFailures:    0,
		TeardownFailures: 1,
		Stats:            collector.Snapshot(),
	}
}
