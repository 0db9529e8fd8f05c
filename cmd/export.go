package cmd

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gamesniff/internal/analysis"
	"gamesniff/internal/generator"
	"gamesniff/internal/logging"
	"gamesniff/internal/reporting"
)

type exportOptions struct {
	count  int
	format string
	seed   int64
	outDir string
}

var exportOpts exportOptions

// exportCmd writes generated packets without a UI.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Generate packets and write them to a file",
	Long: `Generate a batch of simulated packets and write them as JSON, as a
pcap file of synthetic frames or as an HTML report.

A fixed --seed reproduces the same packets apart from their timestamps.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError("failed to load config", err)
		}
		logger, err := logging.New(cfg.Log, os.Stderr)
		if err != nil {
			exitWithError("failed to set up logging", err)
		}
		if exportOpts.outDir == "" {
			exportOpts.outDir = cfg.Export.Dir
		}
		if err := runExport(exportOpts, logger, cmd.OutOrStdout(), time.Now()); err != nil {
			exitWithError("export failed", err)
		}
	},
}

func init() {
	exportCmd.Flags().IntVarP(&exportOpts.count, "count", "n", 20, "number of packets to generate")
	exportCmd.Flags().StringVarP(&exportOpts.format, "format", "f", "json", "output format: json, pcap or html")
	exportCmd.Flags().Int64Var(&exportOpts.seed, "seed", 0, "random seed (0 picks one from the clock)")
	exportCmd.Flags().StringVarP(&exportOpts.outDir, "out", "o", "", "output directory (overrides export.dir)")
}

func runExport(opts exportOptions, logger logrus.FieldLogger, out io.Writer, now time.Time) error {
	if opts.count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", opts.count)
	}

	seed := opts.seed
	if seed == 0 {
		seed = now.UnixNano()
	}
	gen := generator.New(
		generator.WithRand(rand.New(rand.NewSource(seed))),
		generator.WithClock(func() time.Time { return now }),
	)
	records := gen.GenerateBatch(opts.count)

	var (
		path string
		err  error
	)
	switch opts.format {
	case "json":
		path, err = reporting.ExportJSON(opts.outDir, records, now)
	case "pcap":
		path, err = reporting.ExportPCAP(opts.outDir, records, now)
	case "html":
		path, err = reporting.GenerateSessionReport(opts.outDir, analysis.FromRecords(records), records, now)
	default:
		return fmt.Errorf("unsupported format: %s (must be json, pcap or html)", opts.format)
	}
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"format":  opts.format,
		"records": len(records),
		"seed":    seed,
		"path":    path,
	}).Info("export written")
	fmt.Fprintf(out, "✓ Wrote %d packets to %s\n", len(records), path)
	return nil
}
