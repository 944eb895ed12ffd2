// Command ledger-replay replays a CSV file of client transactions and prints the
// resulting account balances as CSV on stdout.
//
// Usage:
//
//	ledger-replay transactions.csv > accounts.csv
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/LerianStudio/ledger-replay/ledger"
	"github.com/LerianStudio/ledger-replay/ledger/config"
	constant "github.com/LerianStudio/ledger-replay/ledger/constants"
	"github.com/LerianStudio/ledger-replay/ledger/log"
	"github.com/LerianStudio/ledger-replay/ledger/opentelemetry"
	"github.com/LerianStudio/ledger-replay/ledger/opentelemetry/metrics"
	ledgerzap "github.com/LerianStudio/ledger-replay/ledger/zap"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = "usage: ledger-replay <transactions.csv>"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintf(stderr, "%v\n%s\n", ledger.ErrMissingInputPath, usage)

		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)

		return exitError
	}

	logger, _, err := ledgerzap.New(ledgerzap.Config{
		Environment:     ledgerzap.Environment(cfg.Environment),
		Level:           cfg.LogLevel,
		OTelLibraryName: constant.TelemetrySDKName,
	})
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)

		return exitError
	}

	defer func() { _ = logger.Sync(context.Background()) }()

	svcLogger := logger.With(log.String("service", cfg.ServiceName))

	factory, err := metrics.NewMetricsFactory(otel.GetMeterProvider().Meter(cfg.ServiceName), svcLogger)
	if err != nil {
		svcLogger.Log(ctx, log.LevelWarn, "metrics disabled", log.Err(err))

		factory = metrics.NewNopFactory()
	}

	path := args[0]

	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "open input %q: %v\n", path, err)

		return exitError
	}
	defer file.Close()

	ctx = opentelemetry.ContextWithTraceParent(ctx, cfg.TraceParent, cfg.TraceState)
	ctx = ledger.ContextWithLogger(ctx, svcLogger)
	ctx = ledger.ContextWithMetricFactory(ctx, factory)

	if _, err := ledger.Replay(ctx, file, stdout); err != nil {
		production := cfg.Environment == string(ledgerzap.EnvironmentProduction)
		log.SafeError(ctx, svcLogger, "ledger replay failed", err, production)
		fmt.Fprintf(stderr, "ledger replay: %v\n", err)

		return exitError
	}

	return exitOK
}
