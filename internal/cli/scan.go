package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"hwids/internal/filewalker"
	"hwids/internal/parser"
	"hwids/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Parse every .ids database under a directory and print a summary",
		Long: `Discovers *.ids files, parses them concurrently and prints one line per
database. A database that fails to parse is reported and does not stop the
others; the command fails if any did.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0])
		},
	}
	cmd.Flags().String("stop-vendor", "", "Vendor ID that ends parsing before it is recorded")
	cmd.Flags().Int("workers", 0, "Number of databases parsed concurrently")
	return cmd
}

// runScan handles the `scan` command.
func runScan(cmd *cobra.Command, dir string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	entries, err := filewalker.NewWalker().Walk(dir)
	if err != nil {
		return err
	}

	p := parser.New(parser.WithStopVendor(cfg.StopVendor), parser.WithLogger(log.Logger))
	parsePool := worker.NewPool[filewalker.FileEntry, *parser.ParseResult](cfg.Workers,
		func(ctx context.Context, entry filewalker.FileEntry) (*parser.ParseResult, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return p.ParseFile(entry.Path)
		},
	)
	results := parsePool.Execute(ctx, entries)

	absDir, _ := filepath.Abs(dir)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATABASE\tVENDORS\tDEVICES\tSUBSYSTEMS\tSTOP")
	failed := 0
	for _, r := range results {
		name, err := filepath.Rel(absDir, r.Input.Path)
		if err != nil {
			name = r.Input.Path
		}
		if r.Err != nil || !r.Done {
			failed++
			reportParseError(r.Input.Path, r.Err)
			fmt.Fprintf(tw, "%s\t-\t-\t-\terror: %v\n", name, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", name,
			r.Result.VendorCount(), r.Result.DeviceCount(), r.Result.Subsystems(), r.Result.Stop())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d databases failed to parse", failed, len(results))
	}
	return nil
}
