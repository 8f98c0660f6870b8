// Package output renders run results for people and machines.
package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/wesleyorama2/swarm/internal/config"
	"github.com/wesleyorama2/swarm/internal/runner"
	"github.com/wesleyorama2/swarm/internal/stats"
)

const (
	ruleChar  = "━"
	ruleWidth = 72

	// DefaultTopFailures is how many failure reasons a summary lists.
	DefaultTopFailures = 5
)

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	Writer      io.Writer
	Quiet       bool
	NoColor     bool
	ForceColors bool
	TopFailures int
}

// Console prints run headers and summaries.
type Console struct {
	writer      io.Writer
	colors      *ColorScheme
	useColors   bool
	quiet       bool
	topFailures int

	mu sync.Mutex
}

// NewConsole creates a console writer. Colors are used only when the writer
// is a terminal and the environment allows them, unless forced.
func NewConsole(cfg ConsoleConfig) *Console {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.TopFailures <= 0 {
		cfg.TopFailures = DefaultTopFailures
	}

	useColors := cfg.ForceColors || (!cfg.NoColor && isTerminal(cfg.Writer) && supportsColors())
	colors := NoColorScheme()
	if useColors {
		colors = forcedColorScheme()
	}

	return &Console{
		writer:      cfg.Writer,
		colors:      colors,
		useColors:   useColors,
		quiet:       cfg.Quiet,
		topFailures: cfg.TopFailures,
	}
}

// UseColors reports whether output is colored.
func (c *Console) UseColors() bool {
	return c.useColors
}

// PrintHeader prints the run header before users are spawned.
func (c *Console) PrintHeader(cfg *config.RunConfig, minWait, maxWait time.Duration) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.rule()
	c.writeln(c.colors.Title.Sprintf("%s - Running", cfg.Name))
	c.rule()
	c.writeln(fmt.Sprintf("Host:          %s", c.colors.Value.Sprint(cfg.Host)))
	c.writeln(fmt.Sprintf("Users:         %s at %s/s",
		c.colors.Value.Sprint(cfg.Users),
		c.colors.Value.Sprintf("%g", cfg.SpawnRate)))
	c.writeln(fmt.Sprintf("Duration:      %s", c.colors.Value.Sprint(formatDuration(cfg.Duration.Std()))))
	c.writeln(fmt.Sprintf("Wait:          %s", c.colors.Value.Sprintf("%s - %s",
		formatDurationShort(minWait), formatDurationShort(maxWait))))
	c.writeln("")
}

// PrintSummary prints the final run summary.
func (c *Console) PrintSummary(result *runner.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	passed := !result.AllSetupsFailed()

	if c.quiet {
		if passed {
			c.writeln(c.colors.Success.Sprint("PASSED"))
		} else {
			c.writeln(c.colors.Error.Sprint("FAILED"))
		}
		return
	}

	status := c.colors.Success.Sprint("Completed ✓")
	if !passed {
		status = c.colors.Error.Sprint("Failed ✗")
	}

	c.writeln("")
	c.rule()
	c.writeln(fmt.Sprintf("%s - %s", c.colors.Title.Sprint(result.Name), status))
	c.rule()
	c.writeln("")

	c.writeln(fmt.Sprintf("Run ID:        %s", c.colors.Dim.Sprint(result.ID)))
	c.writeln(fmt.Sprintf("Host:          %s", c.colors.Value.Sprint(result.Host)))
	c.writeln(fmt.Sprintf("Duration:      %s", c.colors.Value.Sprint(formatDuration(result.Duration))))
	c.writeln(fmt.Sprintf("Users:         %s spawned", c.colors.Value.Sprint(result.UsersSpawned)))
	c.writeln(fmt.Sprintf("Setup Fails:   %s", c.countColor(result.SetupFailures).Sprint(result.SetupFailures)))
	c.writeln(fmt.Sprintf("Teardown Fails: %s", c.countColor(result.TeardownFailures).Sprint(result.TeardownFailures)))

	snapshot := result.Stats
	if snapshot == nil {
		snapshot = &stats.Snapshot{}
	}

	total := snapshot.Total
	rps := 0.0
	if result.Duration > 0 {
		rps = float64(total.Requests) / result.Duration.Seconds()
	}
	c.writeln(fmt.Sprintf("Total Reqs:    %s (%s/s)",
		c.colors.Value.Sprint(formatNumber(total.Requests)),
		c.colors.Value.Sprintf("%.1f", rps)))

	successRate := 1.0 - total.FailureRate()
	c.writeln(fmt.Sprintf("Success Rate:  %s",
		c.colors.rateColor(total.FailureRate()).Sprintf("%.1f%%", successRate*100)))
	c.writeln("")

	if len(snapshot.Entries) > 0 {
		c.printTable(snapshot)
		c.writeln("")
	}

	failures := topFailures(snapshot.Entries, c.topFailures)
	if len(failures) > 0 {
		c.writeln(c.colors.Label.Sprint("Failures:"))
		for _, f := range failures {
			c.writeln(fmt.Sprintf("  %s  %s %s: %s",
				c.colors.Error.Sprintf("%6s", formatNumber(f.Count)),
				f.Method, f.Name, f.Reason))
		}
		c.writeln("")
	}
}

// PrintProgress prints a one-line status update while the run is going.
func (c *Console) PrintProgress(elapsed time.Duration, activeUsers int, snapshot *stats.Snapshot) {
	if c.quiet || snapshot == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	total := snapshot.Total
	rps := 0.0
	if elapsed > 0 {
		rps = float64(total.Requests) / elapsed.Seconds()
	}

	c.writeln(fmt.Sprintf("[%s] Users: %d | Reqs: %s | RPS: %.1f | Fails: %s | P95: %s",
		c.colors.Dim.Sprint(formatDuration(elapsed)),
		activeUsers,
		formatNumber(total.Requests),
		rps,
		c.colors.rateColor(total.FailureRate()).Sprintf("%s (%.1f%%)", formatNumber(total.Failures), total.FailureRate()*100),
		formatDurationShort(total.Latency.P95)))
}

// printTable prints one row per request entry plus an aggregated row.
func (c *Console) printTable(snapshot *stats.Snapshot) {
	header := fmt.Sprintf("%-7s %-28s %9s %14s %8s %8s %8s",
		"Method", "Name", "Reqs", "Fails", "P50", "P95", "Max")
	c.writeln(c.colors.Label.Sprint(header))
	c.writeln(c.colors.Dim.Sprint(strings.Repeat("-", len(header))))

	for _, e := range snapshot.Entries {
		c.writeln(c.formatRow(e))
	}

	c.writeln(c.colors.Dim.Sprint(strings.Repeat("-", len(header))))
	c.writeln(c.formatRow(snapshot.Total))
}

// formatRow pads each column before coloring it so escape codes do not
// disturb alignment.
func (c *Console) formatRow(e stats.EntryStats) string {
	fails := fmt.Sprintf("%s(%.1f%%)", formatNumber(e.Failures), e.FailureRate()*100)
	failColor := c.colors.rateColor(e.FailureRate())

	return strings.Join([]string{
		c.colors.Method.Sprintf("%-7s", e.Method),
		c.colors.Name.Sprintf("%-28s", truncate(e.Name, 28)),
		fmt.Sprintf("%9s", formatNumber(e.Requests)),
		failColor.Sprintf("%14s", fails),
		c.colors.Latency.Sprintf("%8s", formatDurationShort(e.Latency.P50)),
		c.colors.Latency.Sprintf("%8s", formatDurationShort(e.Latency.P95)),
		c.colors.Latency.Sprintf("%8s", formatDurationShort(e.Latency.Max)),
	}, " ")
}

func (c *Console) countColor(n int) *color.Color {
	if n > 0 {
		return c.colors.Error
	}
	return c.colors.Success
}

func (c *Console) rule() {
	c.writeln(c.colors.Rule.Sprint(strings.Repeat(ruleChar, ruleWidth)))
}

// writeln writes to the output with a newline.
func (c *Console) writeln(s string) {
	fmt.Fprintln(c.writer, s)
}

// FailureReason is one distinct failure and how often it happened.
type FailureReason struct {
	Method string
	Name   string
	Reason string
	Count  int64
}

// topFailures returns the n most frequent failure reasons across entries.
func topFailures(entries []stats.EntryStats, n int) []FailureReason {
	var out []FailureReason
	for _, e := range entries {
		for reason, count := range e.Errors {
			out = append(out, FailureReason{Method: e.Method, Name: e.Name, Reason: reason, Count: count})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].Method != out[j].Method {
			return out[i].Method < out[j].Method
		}
		return out[i].Reason < out[j].Reason
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %02dm %02ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// formatDurationShort formats a latency in a short format.
func formatDurationShort(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return "0ms"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}

// formatNumber formats a number with thousands separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}

	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		result.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}
