package cli

import (
	"fmt"

	"hwids/internal/graph"
	"hwids/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func seedPostgresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-postgres",
		Short: "Parse the database and store it as a PostgreSQL snapshot",
		Long: `Stores every vendor and device of the parse in one transaction. A database
whose SHA-256 is already stored is not inserted again.`,
		Args: cobra.NoArgs,
		RunE: runSeedPostgres,
	}
	addInputFlags(cmd)
	return cmd
}

// runSeedPostgres handles the `seed-postgres` command.
func runSeedPostgres(cmd *cobra.Command, _ []string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := parseDatabase(cfg)
	if err != nil {
		return err
	}

	pgPool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	s := store.New(pgPool)
	if err := s.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure store schema: %w", err)
	}

	snap, err := s.SaveSnapshot(ctx, res)
	if err != nil {
		reportParseError(cfg.Input, err)
		return fmt.Errorf("save snapshot: %w", err)
	}

	log.Info().
		Str("snapshot", snap.ID.String()).
		Bool("existing", snap.Existing).
		Msg("PostgreSQL seeding complete")
	return nil
}

func seedGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-graph",
		Short: "Parse the database and merge it into Neo4j",
		Args:  cobra.NoArgs,
		RunE:  runSeedGraph,
	}
	addInputFlags(cmd)
	cmd.Flags().Int("batch-size", 0, "Rows per UNWIND statement")
	return cmd
}

// runSeedGraph handles the `seed-graph` command.
func runSeedGraph(cmd *cobra.Command, _ []string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := parseDatabase(cfg)
	if err != nil {
		return err
	}

	driver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	b := graph.NewBuilder(driver)
	if err := b.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}
	if err := b.Load(ctx, res, cfg.GraphBatchSize); err != nil {
		reportParseError(cfg.Input, err)
		return fmt.Errorf("load graph: %w", err)
	}

	log.Info().
		Int("vendors", res.VendorCount()).
		Int("devices", res.DeviceCount()).
		Msg("Graph seeding complete")
	return nil
}
