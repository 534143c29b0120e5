package cli

import (
	"fmt"

	"hwids/internal/export"
	"hwids/internal/textutil"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Parse the database and write the selected lookup artifacts",
		Long: `Parses the database once and renders the selected artifacts in parallel.
Either every artifact is written or, on any error, none is.`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}

	addInputFlags(cmd)
	cmd.Flags().String("offset-out", "", "Output path of the offset table (default pci_offset_table.<encoding>)")
	cmd.Flags().String("nested-out", "", "Output path of the nested table (default pci_nested_table.<encoding>)")
	cmd.Flags().String("emit", "", "Artifacts to emit: offsetTable, nestedTable or both")
	cmd.Flags().String("encoding", "", "Artifact encoding: json, cbor or go")
	cmd.Flags().String("go-package", "", "Package clause for the go encoding")
	cmd.Flags().Int("workers", 0, "Number of exporters rendered concurrently")

	return cmd
}

// runBuild handles the `build` command.
func runBuild(cmd *cobra.Command, _ []string) error {
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

	exporters := export.New(cfg.Selection(), export.Options{
		Encoding:  cfg.ExportEncoding(),
		GoPackage: cfg.GoPackage,
	})
	targets := make([]export.Target, len(exporters))
	for i, e := range exporters {
		targets[i] = export.Target{Exporter: e, Path: cfg.OutputPath(e.Name())}
	}

	artifacts, err := export.Run(ctx, res, targets, cfg.Workers)
	if err != nil {
		reportParseError(cfg.Input, err)
		return fmt.Errorf("render artifacts: %w", err)
	}
	if err := export.WriteAll(artifacts); err != nil {
		return err
	}

	log.Info().
		Int("artifacts", len(artifacts)).
		Str("encoding", string(cfg.ExportEncoding())).
		Msg("Build complete")
	return nil
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Parse the database and print its counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			res, err := parseDatabase(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "input:       %s\n", cfg.Input)
			fmt.Fprintf(out, "sha256:      %s\n", textutil.Hash(res.Source()))
			fmt.Fprintf(out, "bytes:       %d\n", len(res.Source()))
			fmt.Fprintf(out, "consumed:    %d\n", res.Consumed())
			fmt.Fprintf(out, "vendors:     %d\n", res.VendorCount())
			fmt.Fprintf(out, "devices:     %d\n", res.DeviceCount())
			fmt.Fprintf(out, "subsystems:  %d\n", res.Subsystems())
			if res.StopLine() > 0 {
				fmt.Fprintf(out, "stopped:     %s at line %d\n", res.Stop(), res.StopLine())
			} else {
				fmt.Fprintf(out, "stopped:     %s\n", res.Stop())
			}
			return nil
		},
	}

	addInputFlags(cmd)
	return cmd
}
