package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odfuzz/odfuzz/internal/config"
	"github.com/odfuzz/odfuzz/internal/corpus"
	"github.com/odfuzz/odfuzz/internal/dispatch"
	"github.com/odfuzz/odfuzz/internal/entities"
	"github.com/odfuzz/odfuzz/internal/evolution"
	"github.com/odfuzz/odfuzz/internal/logging"
)

var (
	restrictionsPath string
	asyncMode        bool
	debugLogging     bool
	snapshotPath     string
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz <service-url>",
	Short: "Fuzz a live OData service until interrupted",
	Long: `fuzz seeds a query population from the service's discovered entity
sets, then evolves it indefinitely: selecting parents, breeding or
generating children, dispatching them, scoring the responses, and
pruning the weak. It runs until interrupted (SIGINT/SIGTERM).

Examples:
  odfuzz fuzz https://example.com/odata/service
  odfuzz fuzz https://example.com/odata/service --async --restrictions rules.yaml
`,
	Args: cobra.ExactArgs(1),
	RunE: runFuzz,
}

func init() {
	fuzzCmd.Flags().StringVarP(&restrictionsPath, "restrictions", "r", "", "Path to a YAML restriction file")
	fuzzCmd.Flags().BoolVarP(&asyncMode, "async", "a", false, "Dispatch queries across a bounded worker pool instead of serially")
	fuzzCmd.Flags().BoolVarP(&debugLogging, "debug", "d", false, "Use human-readable development logging")
	fuzzCmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "odfuzz.snapshot", "Path to write the corpus snapshot on shutdown, for later use with 'odfuzz report'")
}

func runFuzz(cmd *cobra.Command, args []string) error {
	service := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New(debugLogging)
	if err != nil {
		return fmt.Errorf("fuzz: building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(service, restrictionsPath, asyncMode)
	if err != nil {
		return fmt.Errorf("fuzz: loading configuration: %w", err)
	}

	client, tlsFound, err := dispatch.NewTLSClient(cfg.CertPath)
	if err != nil {
		return fmt.Errorf("fuzz: configuring TLS trust anchor: %w", err)
	}
	if !tlsFound {
		logger.Warn("no trust anchor certificate found, disabling TLS verification", zap.String("cert_path", cfg.CertPath))
	}

	dispatcher := dispatch.New(cfg.Service, cfg.Username, cfg.Password, dispatch.WithHTTPClient(client))

	discovered, err := discoverEntities(ctx, cfg)
	if err != nil {
		return fmt.Errorf("fuzz: %w", err)
	}

	store := corpus.New()
	driver := evolution.New(dispatcher, discovered, store, cfg, logger)

	logger.Info("starting fuzzing run", zap.String("service", cfg.Service), zap.Bool("async", cfg.Async))
	runErr := driver.Run(ctx)
	if runErr != nil && ctx.Err() == nil {
		logger.Error("fuzzing run ended with error", zap.Error(runErr))
	} else {
		logger.Info("fuzzing run stopped", zap.String("corpus", store.String()))
	}

	if err := writeSnapshot(store, snapshotPath); err != nil {
		logger.Warn("failed to write corpus snapshot", zap.Error(err))
	} else {
		logger.Info("corpus snapshot written", zap.String("path", snapshotPath))
	}

	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("fuzz: %w", runErr)
	}
	return nil
}

func writeSnapshot(store *corpus.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return store.Snapshot(f)
}

// discoverEntities surfaces the absence of a metadata-discovery Builder as
// a clear, actionable configuration error rather than fabricating one:
// OData $metadata parsing is an out-of-scope collaborator this module only
// declares an interface for (internal/entities.Builder). A concrete
// implementation must be supplied by whatever wires this CLI for a real
// deployment.
func discoverEntities(ctx context.Context, cfg *config.Config) (entities.Entities, error) {
	var builder entities.Builder
	if builder == nil {
		return nil, fmt.Errorf("no entities.Builder wired: odfuzz needs an OData $metadata parser "+
			"(internal/entities.Builder implementation) to discover entity sets for %q; "+
			"this module only declares the Builder contract, not an implementation of it", cfg.Service)
	}
	return builder.Build(ctx)
}
