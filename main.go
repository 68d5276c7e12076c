// Command research submits a query to a deep research agent, prints the
// agent's progress while the run is in flight, and writes the final answer
// with its references to research_summary.md.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xiaot623/gogo/research/internal/adapter/agentclient"
	"github.com/xiaot623/gogo/research/internal/config"
	"github.com/xiaot623/gogo/research/internal/repository"
	"github.com/xiaot623/gogo/research/internal/service"
	"github.com/xiaot623/gogo/research/policy"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stdout, `Usage: research "<what to research>"`)
		fmt.Fprintln(stdout, `Example: research "Assess the company's growth from its stock price history."`)
		return 1
	}
	query := args[0]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			fmt.Fprintln(stdout, "Required environment variables are not set:")
			for _, name := range missing.Names {
				fmt.Fprintf(stdout, "  %s\n", name)
			}
			fmt.Fprintln(stdout, "\nCreate a .env file that sets the required variables.")
			fmt.Fprintln(stdout, "(See .env.example for reference.)")
		} else {
			fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		}
		return 1
	}

	logger, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if cfg.EnvFile != "" {
		logger.Debug("loaded environment file", zap.String("path", cfg.EnvFile))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize policy engine
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		logger.Error("failed to initialize policy engine", zap.Error(err))
		return 1
	}
	if err := policyEngine.Check(ctx, policy.Input{
		Query:             query,
		Model:             cfg.ModelDeployment,
		DeepResearchModel: cfg.DeepResearchModel,
	}); err != nil {
		fmt.Fprintf(stdout, "Query rejected: %v\n", err)
		return 1
	}

	// Initialize journal
	store, err := repository.Open(cfg.JournalDSN)
	if err != nil {
		logger.Error("failed to open journal", zap.Error(err))
		return 1
	}
	defer store.Close()

	// Initialize agent service client; released on every return path below.
	client, err := agentclient.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize agent service client", zap.Error(err))
		return 1
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close agent service client", zap.Error(err))
		}
	}()

	orchestrator := service.New(client, store, cfg, stdout, logger)
	result, err := orchestrator.Run(ctx, query)
	if err != nil {
		logger.Error("research run failed",
			zap.String("invocation_id", result.InvocationID),
			zap.String("run_id", result.RunID),
			zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger.Info("research run finished",
		zap.String("invocation_id", result.InvocationID),
		zap.String("status", string(result.Status)),
		zap.String("summary", result.SummaryPath))
	return 0
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}
