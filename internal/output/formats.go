package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/swarm/internal/runner"
	"github.com/wesleyorama2/swarm/internal/stats"
)

// Format represents the available report formats
type Format string

const (
	// FormatText is the default human-readable summary
	FormatText Format = "text"
	// FormatJSON outputs the report as indented JSON
	FormatJSON Format = "json"
	// FormatYAML outputs the report as YAML
	FormatYAML Format = "yaml"
	// FormatJUnit outputs JUnit XML (for CI/CD integration)
	FormatJUnit Format = "junit"
	// FormatHTML renders a standalone HTML report
	FormatHTML Format = "html"
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML, FormatJUnit, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected text, json, yaml, junit or html)", s)
	}
}

// Report is the machine-readable form of a run result.
type Report struct {
	ID               string        `json:"id" yaml:"id"`
	Name             string        `json:"name" yaml:"name"`
	Host             string        `json:"host" yaml:"host"`
	StartTime        time.Time     `json:"startTime" yaml:"startTime"`
	DurationMs       float64       `json:"durationMs" yaml:"durationMs"`
	UsersSpawned     int           `json:"usersSpawned" yaml:"usersSpawned"`
	SetupFailures    int           `json:"setupFailures" yaml:"setupFailures"`
	TeardownFailures int           `json:"teardownFailures" yaml:"teardownFailures"`
	Passed           bool          `json:"passed" yaml:"passed"`
	Entries          []EntryReport `json:"entries" yaml:"entries"`
	Total            EntryReport   `json:"total" yaml:"total"`
}

// EntryReport holds the statistics for one request name.
type EntryReport struct {
	Method      string           `json:"method,omitempty" yaml:"method,omitempty"`
	Name        string           `json:"name" yaml:"name"`
	Requests    int64            `json:"requests" yaml:"requests"`
	Failures    int64            `json:"failures" yaml:"failures"`
	FailureRate float64          `json:"failureRate" yaml:"failureRate"`
	Bytes       int64            `json:"bytes" yaml:"bytes"`
	Latency     LatencyReport    `json:"latencyMs" yaml:"latencyMs"`
	Errors      map[string]int64 `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// LatencyReport holds latency figures in milliseconds.
type LatencyReport struct {
	Min  float64 `json:"min" yaml:"min"`
	Mean float64 `json:"mean" yaml:"mean"`
	P50  float64 `json:"p50" yaml:"p50"`
	P90  float64 `json:"p90" yaml:"p90"`
	P95  float64 `json:"p95" yaml:"p95"`
	P99  float64 `json:"p99" yaml:"p99"`
	Max  float64 `json:"max" yaml:"max"`
}

// NewReport converts a run result into a Report.
func NewReport(result *runner.Result) *Report {
	report := &Report{
		ID:               result.ID,
		Name:             result.Name,
		Host:             result.Host,
		StartTime:        result.StartTime,
		DurationMs:       millis(result.Duration),
		UsersSpawned:     result.UsersSpawned,
		SetupFailures:    result.SetupFailures,
		TeardownFailures: result.TeardownFailures,
		Passed:           !result.AllSetupsFailed(),
		Entries:          []EntryReport{},
	}

	if result.Stats != nil {
		for _, e := range result.Stats.Entries {
			report.Entries = append(report.Entries, newEntryReport(e))
		}
		report.Total = newEntryReport(result.Stats.Total)
	}
	return report
}

func newEntryReport(e stats.EntryStats) EntryReport {
	return EntryReport{
		Method:      e.Method,
		Name:        e.Name,
		Requests:    e.Requests,
		Failures:    e.Failures,
		FailureRate: e.FailureRate(),
		Bytes:       e.Bytes,
		Latency: LatencyReport{
			Min:  millis(e.Latency.Min),
			Mean: millis(e.Latency.Mean),
			P50:  millis(e.Latency.P50),
			P90:  millis(e.Latency.P90),
			P95:  millis(e.Latency.P95),
			P99:  millis(e.Latency.P99),
			Max:  millis(e.Latency.Max),
		},
		Errors: e.Errors,
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, result *runner.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(result))
}

// WriteYAML writes the result as a YAML document.
func WriteYAML(w io.Writer, result *runner.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(result)); err != nil {
		return err
	}
	return enc.Close()
}

// JUnitTestSuite represents a JUnit test suite
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a JUnit test case
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure represents a JUnit test failure
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// WriteJUnit writes the result as JUnit XML with one test case per request
// entry, plus one for user setup. An entry with any failed request fails.
func WriteJUnit(w io.Writer, result *runner.Result) error {
	suite := JUnitTestSuite{
		Name:      result.Name,
		Time:      result.Duration.Seconds(),
		Timestamp: result.StartTime.Format(time.RFC3339),
		TestCases: []JUnitTestCase{},
	}

	classname := "swarm." + result.Name

	setup := JUnitTestCase{
		Name:      "user setup",
		Classname: classname,
		SystemOut: fmt.Sprintf("%d users spawned, %d teardown failures", result.UsersSpawned, result.TeardownFailures),
	}
	if result.SetupFailures > 0 {
		setup.Failure = &JUnitFailure{
			Message: fmt.Sprintf("%d of %d users failed setup", result.SetupFailures, result.UsersSpawned),
			Type:    "SetupFailure",
		}
	}
	suite.TestCases = append(suite.TestCases, setup)

	if result.Stats != nil {
		for _, e := range result.Stats.Entries {
			tc := JUnitTestCase{
				Name:      strings.TrimSpace(e.Method + " " + e.Name),
				Classname: classname,
				Time:      e.Latency.Mean.Seconds() * float64(e.Requests),
				SystemOut: fmt.Sprintf("requests=%d p50=%s p95=%s max=%s",
					e.Requests,
					formatDurationShort(e.Latency.P50),
					formatDurationShort(e.Latency.P95),
					formatDurationShort(e.Latency.Max)),
			}
			if e.Failures > 0 {
				tc.Failure = &JUnitFailure{
					Message: fmt.Sprintf("%d of %d requests failed", e.Failures, e.Requests),
					Type:    "RequestFailure",
					Content: formatReasons(e.Errors),
				}
			}
			suite.TestCases = append(suite.TestCases, tc)
		}
	}

	suite.Tests = len(suite.TestCases)
	for _, tc := range suite.TestCases {
		if tc.Failure != nil {
			suite.Failures++
		}
	}

	output, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JUnit report: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header+string(output)+"\n"); err != nil {
		return err
	}
	return nil
}

// formatReasons lists failure reasons, most frequent first.
func formatReasons(errs map[string]int64) string {
	reasons := make([]string, 0, len(errs))
	for reason := range errs {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if errs[reasons[i]] != errs[reasons[j]] {
			return errs[reasons[i]] > errs[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})

	lines := make([]string, len(reasons))
	for i, reason := range reasons {
		lines[i] = fmt.Sprintf("%d x %s", errs[reason], reason)
	}
	return strings.Join(lines, "\n")
}

// Write renders result to w in the given format.
func Write(w io.Writer, format Format, result *runner.Result, console ConsoleConfig) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, result)
	case FormatYAML:
		return WriteYAML(w, result)
	case FormatJUnit:
		return WriteJUnit(w, result)
	case FormatHTML:
		return WriteHTML(w, result)
	default:
		console.Writer = w
		NewConsole(console).PrintSummary(result)
		return nil
	}
}
