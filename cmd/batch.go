package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/talentsift/cvgate/internal/pipeline"
)

var batchReportDir string

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract and gate records from every document in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		paths, err := collectDocuments(args[0])
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return eris.Errorf("no .txt or .json documents in %s", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p := pipeline.New(cfg.Gate)
		limiter := rate.NewLimiter(rate.Limit(cfg.Batch.DocsPerSecond), 1)

		var processed, failed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentDocuments)
		for _, path := range paths {
			g.Go(func() error {
				if err := limiter.Wait(gctx); err != nil {
					return eris.Wrap(err, "rate limit wait")
				}

				input, err := readDocument(path)
				if err != nil {
					return err
				}

				result := p.Run(input.DocumentID, input.Lines, input.EntityHints, input.SectionBounds)
				if !result.Success {
					failed.Add(1)
				}
				processed.Add(1)

				if err := persistResult(gctx, st, result); err != nil {
					return err
				}

				if batchReportDir != "" {
					out := filepath.Join(batchReportDir, input.DocumentID+".yaml")
					if err := writeSnapshot(result.Snapshot, "yaml", out); err != nil {
						return err
					}
				}

				zap.L().Info("document processed",
					zap.String("document_id", result.DocumentID),
					zap.String("run_id", result.RunID),
					zap.Bool("success", result.Success),
					zap.Int("experiences", len(result.Experiences)),
					zap.Int("education", len(result.Education)),
				)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch run")
		}

		zap.L().Info("batch complete",
			zap.Int64("processed", processed.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func collectDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read directory %s", dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".json":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchReportDir, "report-dir", "", "write per-document YAML reports to this directory")
	rootCmd.AddCommand(batchCmd)
}
