package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"hwids/internal/cache"
	"hwids/internal/config"
	"hwids/internal/export"
	"hwids/internal/graph"
	"hwids/internal/lookup"
	"hwids/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Resolver backends selectable with --backend.
const (
	backendArtifact = "artifact"
	backendPostgres = "postgres"
	backendNeo4j    = "neo4j"
)

func addResolverFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", backendArtifact, "Where names come from: artifact, postgres or neo4j")
	cmd.Flags().String("artifact", "", "Artifact file for the artifact backend (default: the configured nested or offset output)")
	cmd.Flags().Bool("preload", false, "Load every name from the neo4j backend into memory first")
}

// openResolver builds the resolver selected on cmd, behind a name cache. The
// returned function releases any connection it opened.
func openResolver(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*cache.NameCache, func(), error) {
	backend, _ := cmd.Flags().GetString("backend")

	switch backend {
	case backendArtifact:
		path, _ := cmd.Flags().GetString("artifact")
		if path == "" {
			kind := export.KindNestedTable
			if !cfg.Selection().Nested() {
				kind = export.KindOffsetTable
			}
			path = cfg.OutputPath(kind)
		}
		r, err := lookup.Load(path)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("artifact", path).Msg("Loaded artifact")
		return cache.NewNameCache(r), func() {}, nil

	case backendPostgres:
		pgPool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		s := store.New(pgPool)
		snap, err := s.Latest(ctx)
		if err != nil {
			pgPool.Close()
			if errors.Is(err, lookup.ErrNotFound) {
				return nil, nil, errors.New("no snapshot stored yet (run seed-postgres first)")
			}
			return nil, nil, err
		}
		log.Debug().Str("snapshot", snap.ID.String()).Time("created", snap.CreatedAt).Msg("Using snapshot")
		return cache.NewNameCache(s), pgPool.Close, nil

	case backendNeo4j:
		driver, err := connectNeo4j(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		q := graph.NewQuerier(driver)
		names := cache.NewNameCache(q)
		if preload, _ := cmd.Flags().GetBool("preload"); preload {
			vendors, devices, err := q.Names(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to preload names")
			} else {
				names.Preload(vendors, devices)
			}
		}
		return names, func() { driver.Close(ctx) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want artifact, postgres or neo4j)", backend)
	}
}

func lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <vendor> [device]",
		Short: "Resolve a vendor or device ID to its name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r, closeFn, err := openResolver(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			return resolve(ctx, cmd.OutOrStdout(), r, args)
		},
	}
	addResolverFlags(cmd)
	return cmd
}

// resolve prints the vendor name, or the device name when a device ID is
// given.
func resolve(ctx context.Context, out io.Writer, r lookup.Resolver, args []string) error {
	var (
		name string
		err  error
	)
	if len(args) == 1 {
		name, err = r.Vendor(ctx, args[0])
	} else {
		name, err = r.Device(ctx, args[0], args[1])
	}
	if err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			return fmt.Errorf("no entry: %w", err)
		}
		return err
	}
	fmt.Fprintln(out, name)
	return nil
}
