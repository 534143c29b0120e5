package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"hwids/internal/config"
	"hwids/internal/parser"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hwids",
		Short: "Compile pci.ids style hardware databases into lookup tables",
		Long: `hwids parses a tab-indented vendor/device database such as pci.ids and
emits compact lookup artifacts: an offset table that points into the original
text and a nested vendor → device → name table.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			jsonLogs, _ := cmd.Flags().GetBool("json-logs")
			return setupLogging(cmd.ErrOrStderr(), level, jsonLogs)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "YAML config file applied over the environment")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON instead of console output")

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(shellCmd())
	rootCmd.AddCommand(seedPostgresCmd())
	rootCmd.AddCommand(seedGraphCmd())

	return rootCmd
}

func setupLogging(w io.Writer, level string, jsonLogs bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	if jsonLogs {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
	}
	return nil
}

// loadConfig loads the configuration and applies any flags the user set on
// cmd. Flags without a config counterpart are ignored.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	stringFlags := map[string]*string{
		"input":       &cfg.Input,
		"offset-out":  &cfg.OffsetOut,
		"nested-out":  &cfg.NestedOut,
		"emit":        &cfg.Emit,
		"encoding":    &cfg.Encoding,
		"stop-vendor": &cfg.StopVendor,
		"go-package":  &cfg.GoPackage,
	}
	for name, dst := range stringFlags {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.GraphBatchSize, _ = cmd.Flags().GetInt("batch-size")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// addInputFlags registers the flags every parsing command shares.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "Path to the pci.ids database (default $HWIDS_INPUT or pci.ids)")
	cmd.Flags().String("stop-vendor", "", "Vendor ID that ends parsing before it is recorded")
}

// parseDatabase parses the configured input. Format violations are logged
// with their kind, line and raw text before being returned.
func parseDatabase(cfg *config.Config) (*parser.ParseResult, error) {
	p := parser.New(
		parser.WithStopVendor(cfg.StopVendor),
		parser.WithLogger(log.Logger),
	)
	res, err := p.ParseFile(cfg.Input)
	if err != nil {
		reportParseError(cfg.Input, err)
		return nil, fmt.Errorf("parse database: %w", err)
	}
	log.Info().
		Str("input", cfg.Input).
		Int("vendors", res.VendorCount()).
		Int("devices", res.DeviceCount()).
		Stringer("stop", res.Stop()).
		Msg("Parsed database")
	return res, nil
}

// reportParseError logs the details of a format violation. Other errors are
// left to the caller.
func reportParseError(path string, err error) {
	var pe *parser.Error
	if !errors.As(err, &pe) {
		return
	}
	log.Error().
		Str("input", path).
		Str("kind", string(pe.Kind)).
		Int("line", pe.Line).
		Str("raw", pe.Raw).
		Msg(pe.Msg)
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// connectPostgres opens and pings a PostgreSQL pool.
func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}

	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pgPool, nil
}

// connectNeo4j opens a Neo4j driver and verifies connectivity.
func connectNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}
