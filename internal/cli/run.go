package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/swarm/internal/config"
	"github.com/wesleyorama2/swarm/internal/output"
	"github.com/wesleyorama2/swarm/internal/runner"
)

// ErrAllSetupsFailed is returned when no user got past setup.
var ErrAllSetupsFailed = errors.New("every user failed setup")

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the website scenario against a host",
		Long: `Spawn simulated users that log in, browse with weighted actions and a
random wait between them, and log out when the run ends.

Config file mode:
  swarm run --config swarm.yaml

Quick CLI mode:
  swarm run --host https://www.example.com --users 20 --spawn-rate 2 --duration 5m

Flags override values from the config file.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runScenario,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file (YAML or JSON)")
	cmd.Flags().String("host", "", "Target base URL, e.g. https://www.example.com")
	cmd.Flags().IntP("users", "u", 0, "Number of concurrent users")
	cmd.Flags().Float64P("spawn-rate", "r", 0, "Users started per second")
	cmd.Flags().StringP("duration", "d", "", "Run duration (e.g. 5m, 30s, or seconds)")
	cmd.Flags().Int64("min-wait", 0, "Minimum wait between actions in milliseconds")
	cmd.Flags().Int64("max-wait", 0, "Maximum wait between actions in milliseconds")
	cmd.Flags().StringP("timeout", "t", "", "Request timeout (e.g. 10s)")
	cmd.Flags().Duration("stop-timeout", runner.DefaultStopTimeout, "Deadline for each user's teardown once the run ends")
	cmd.Flags().Bool("reset-stats", false, "Reset statistics once every user is spawned and set up")
	cmd.Flags().Int64("seed", 0, "Random seed for reproducible action selection (0 picks one)")
	cmd.Flags().String("format", "", "Report format (text, json, yaml, junit, html)")
	cmd.Flags().Bool("json", false, "Output results as JSON (same as --format json)")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Duration("progress", 5*time.Second, "Interval between progress lines (0 disables)")
	cmd.Flags().BoolP("quiet", "q", false, "Disable logs and progress, print only PASSED or FAILED")
	cmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")

	return cmd
}

// runScenario loads the configuration, runs the scenario and reports.
func runScenario(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	outputPath, _ := cmd.Flags().GetString("output")
	progress, _ := cmd.Flags().GetDuration("progress")
	stopTimeout, _ := cmd.Flags().GetDuration("stop-timeout")
	seed, _ := cmd.Flags().GetInt64("seed")

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	format, err := reportFormat(cmd, outputPath)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose, quiet)
	defer func() { _ = logger.Sync() }()

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithStopTimeout(stopTimeout),
	}
	if seed != 0 {
		opts = append(opts, runner.WithSeed(seed))
	}

	r, err := runner.New(cfg, runner.Website, opts...)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// A machine-readable report on stdout gets stdout to itself.
	reportToStdout := outputPath == "" && format != output.FormatText
	consoleCfg := output.ConsoleConfig{
		Writer:  cmd.OutOrStdout(),
		Quiet:   quiet || reportToStdout,
		NoColor: noColor,
	}
	console := output.NewConsole(consoleCfg)
	console.PrintHeader(r.Config(), r.Scenario().MinWait, r.Scenario().MaxWait)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	firstFailure := make(chan error, 1)
	go func() {
		var first error
		for err := range r.Failures() {
			if first == nil {
				first = err
			}
		}
		firstFailure <- first
	}()

	done := make(chan struct{})
	var progressWg sync.WaitGroup
	if progress > 0 && !consoleCfg.Quiet {
		progressWg.Add(1)
		go func() {
			defer progressWg.Done()
			printProgress(ctx, done, console, r, progress)
		}()
	}

	result, err := r.Run(ctx)
	close(done)
	progressWg.Wait()
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	setupErr := <-firstFailure

	if err := writeReport(cmd.OutOrStdout(), outputPath, format, result, consoleCfg); err != nil {
		return err
	}
	if outputPath != "" {
		console.PrintSummary(result)
	}

	if result.AllSetupsFailed() {
		return fmt.Errorf("%w (%d users): %v", ErrAllSetupsFailed, result.UsersSpawned, setupErr)
	}
	return nil
}

// loadRunConfig reads the config file, if any, and applies flag overrides.
func loadRunConfig(cmd *cobra.Command) (*config.RunConfig, error) {
	flags := cmd.Flags()

	cfg := &config.RunConfig{}
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		cfg = loaded
	}

	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("users") {
		cfg.Users, _ = flags.GetInt("users")
		if cfg.Users < 1 {
			return nil, fmt.Errorf("invalid --users: must be at least 1, got %d", cfg.Users)
		}
	}
	if flags.Changed("spawn-rate") {
		cfg.SpawnRate, _ = flags.GetFloat64("spawn-rate")
		if cfg.SpawnRate <= 0 {
			return nil, fmt.Errorf("invalid --spawn-rate: must be greater than 0, got %v", cfg.SpawnRate)
		}
	}
	if flags.Changed("reset-stats") {
		cfg.ResetStats, _ = flags.GetBool("reset-stats")
	}
	if flags.Changed("duration") {
		s, _ := flags.GetString("duration")
		d, err := config.ParseDurationString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid --duration: %w", err)
		}
		cfg.Duration = config.Duration(d)
	}
	if flags.Changed("timeout") {
		s, _ := flags.GetString("timeout")
		d, err := config.ParseDurationString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Timeout = config.Duration(d)
	}
	if flags.Changed("min-wait") {
		ms, _ := flags.GetInt64("min-wait")
		cfg.MinWait = config.NewMillis(ms)
	}
	if flags.Changed("max-wait") {
		ms, _ := flags.GetInt64("max-wait")
		cfg.MaxWait = config.NewMillis(ms)
	}

	if cfg.Host == "" {
		return nil, errors.New("a host is required: pass --host or set host in --config")
	}
	return cfg, nil
}

// reportFormat resolves --format and --json, falling back to the output
// file's extension.
func reportFormat(cmd *cobra.Command, outputPath string) (output.Format, error) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	formatFlag, _ := cmd.Flags().GetString("format")

	if jsonOutput {
		if formatFlag != "" && !strings.EqualFold(formatFlag, string(output.FormatJSON)) {
			return "", fmt.Errorf("--json conflicts with --format %s", formatFlag)
		}
		return output.FormatJSON, nil
	}
	if formatFlag != "" {
		return output.ParseFormat(formatFlag)
	}

	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".json":
		return output.FormatJSON, nil
	case ".yaml", ".yml":
		return output.FormatYAML, nil
	case ".xml":
		return output.FormatJUnit, nil
	case ".html", ".htm":
		return output.FormatHTML, nil
	default:
		return output.FormatText, nil
	}
}

// writeReport writes the report to outputPath, or to stdout when no path is
// given.
func writeReport(stdout io.Writer, outputPath string, format output.Format, result *runner.Result, consoleCfg output.ConsoleConfig) error {
	if outputPath == "" {
		return output.Write(stdout, format, result, consoleCfg)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	consoleCfg.NoColor = true
	consoleCfg.Quiet = false
	if err := output.Write(f, format, result, consoleCfg); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// printProgress prints a status line every interval until done is closed.
func printProgress(ctx context.Context, done <-chan struct{}, console *output.Console, r *runner.Runner, interval time.Duration) {
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			console.PrintProgress(time.Since(start), r.ActiveUsers(), r.Stats())
		}
	}
}
