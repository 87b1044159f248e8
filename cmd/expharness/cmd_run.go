package main

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"expharness/internal/archive"
	"expharness/internal/build"
	"expharness/internal/campaign"
	"expharness/internal/config"
	"expharness/internal/logging"
	"expharness/internal/report"
	"expharness/internal/runner"
	"expharness/internal/store"
	"expharness/internal/tactile"
)

var (
	runAlgorithm string
	runSkipBuild bool
	runBinary    string
)

// runCmd runs one campaign shape, or small then batch for "all".
var runCmd = &cobra.Command{
	Use:   "run small|batch|genetic|all",
	Short: "Build the program and run an experiment campaign",
	Long: `Runs every seed of the chosen campaign shape and writes the results log,
manifest and summary table. A failed seed is recorded and the campaign goes
on; the command only fails on configuration, build or report-file errors.

  small    explicit seed list, every algorithm, 150 s budget per run
  batch    seed_start .. seed_start+instances-1, greedy and genetic
  genetic  explicit seed list, program defaults, test mode off
  all      small, then batch`,
	Args:        cobra.ExactArgs(1),
	ValidArgs:   []string{"small", "batch", "genetic", "all"},
	Annotations: map[string]string{needsConfig: "true"},
	RunE:        runCampaigns,
}

func init() {
	runCmd.Flags().StringVar(&runAlgorithm, "algo", "", "Override the algorithm selector of small and batch campaigns")
	runCmd.Flags().BoolVar(&runSkipBuild, "skip-build", false, "Use the existing binary instead of compiling")
	runCmd.Flags().StringVar(&runBinary, "binary", "", "Run this executable instead of the built one (implies --skip-build)")
}

func runCampaigns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shapes, err := shapesFor(args[0])
	if err != nil {
		return err
	}
	// Every shape must resolve before anything is built or written.
	for _, s := range shapes {
		if _, err := campaign.ResolvePlan(cfg, s, runAlgorithm); err != nil {
			return err
		}
	}

	bin, err := programBinary(ctx)
	if err != nil {
		return err
	}

	workDir := config.Resolve(workspace, cfg.Program.WorkingDir)
	exec := tactile.NewDirectExecutorWithConfig(tactile.ExecutorConfig{
		DefaultWorkingDir: workDir,
		MaxOutputBytes:    cfg.Program.MaxOutputBytes,
	})

	var extras []report.Sink
	if cfg.Store.Enabled {
		st, err := store.Open(config.Resolve(workspace, cfg.Store.Path))
		if err != nil {
			logging.CampaignWarn("Results store disabled: %v", err)
		} else {
			defer st.Close()
			extras = append(extras, st)
		}
	}

	orch := campaign.NewOrchestrator(campaign.OrchestratorConfig{
		Config:     cfg,
		Workspace:  workspace,
		Invoker:    runner.NewInvoker(exec, bin, workDir, cfg.Program.MaxOutputBytes),
		Binary:     bin,
		Algorithm:  runAlgorithm,
		ExtraSinks: extras,
	})

	var uploader *archive.GCSUploader
	defer func() {
		if uploader != nil {
			uploader.Close()
		}
	}()

	for _, s := range shapes {
		totals, err := orch.Run(ctx, s)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(totals))

		if cfg.Archive.Enabled {
			if uploader == nil {
				uploader, err = archive.NewGCSUploader(ctx, cfg.Archive.Bucket)
				if err != nil {
					logging.ArchiveWarn("Archive disabled: %v", err)
					cfg.Archive.Enabled = false
					continue
				}
			}
			archiveCampaign(ctx, uploader, totals)
		}
	}
	return nil
}

func shapesFor(arg string) ([]campaign.Shape, error) {
	if arg == "all" {
		return []campaign.Shape{campaign.ShapeSmall, campaign.ShapeBatch}, nil
	}
	s, err := campaign.ParseShape(arg)
	if err != nil {
		return nil, err
	}
	return []campaign.Shape{s}, nil
}

// programBinary returns the executable to run, compiling it unless told not to.
func programBinary(ctx context.Context) (string, error) {
	if runBinary != "" {
		bin := config.Resolve(workspace, runBinary)
		if _, err := os.Stat(bin); err != nil {
			return "", fmt.Errorf("%w: %s", build.ErrMissingInput, bin)
		}
		return bin, nil
	}

	b := build.NewBuilder(tactile.NewDirectExecutor(), cfg, workspace)
	if runSkipBuild {
		bin := b.BinaryPath()
		if _, err := os.Stat(bin); err != nil {
			return "", fmt.Errorf("%w: %s (run without --skip-build)", build.ErrMissingInput, bin)
		}
		logging.Build("Skipping build, using %s", bin)
		return bin, nil
	}
	return b.Build(ctx)
}

func archiveCampaign(ctx context.Context, up *archive.GCSUploader, totals *campaign.Totals) {
	prefix := path.Join(cfg.Archive.Prefix, totals.CampaignID)
	results, err := archive.Files(ctx, up, prefix, totals.Paths.All(), cfg.Archive.Concurrency)
	if err != nil {
		logging.ArchiveWarn("Campaign %s archived with errors: %v", totals.CampaignID, err)
	}
	for _, r := range results {
		if r.Err == nil {
			logging.Archive("Archived %s", up.URL(r.Object))
		}
	}
}
