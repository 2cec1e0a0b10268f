package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/metrics"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/pipeline"
	"github.com/talentsift/cvgate/internal/store"
)

var (
	extractDocID  string
	extractFormat string
	extractOutput string
	extractDryRun bool
)

// documentInput is the JSON shape accepted by extract and batch. Plain text
// files are also accepted; each line becomes one indexed document line.
type documentInput struct {
	DocumentID    string              `json:"document_id"`
	Lines         []string            `json:"lines"`
	EntityHints   []model.EntityHint  `json:"entity_hints,omitempty"`
	SectionBounds model.SectionBounds `json:"section_bounds,omitempty"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract and gate records from a single document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		input, err := readDocument(args[0])
		if err != nil {
			return err
		}
		if extractDocID != "" {
			input.DocumentID = extractDocID
		}

		p := pipeline.New(cfg.Gate)
		result := p.Run(input.DocumentID, input.Lines, input.EntityHints, input.SectionBounds)

		if !extractDryRun {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if err := persistResult(ctx, st, result); err != nil {
				return err
			}
		}

		zap.L().Info("extraction complete",
			zap.String("document_id", result.DocumentID),
			zap.String("run_id", result.RunID),
			zap.Bool("success", result.Success),
			zap.Int("experiences", len(result.Experiences)),
			zap.Int("education", len(result.Education)),
			zap.Float64("pattern_diversity", result.Snapshot.PatternDiversity),
		)

		return writeSnapshot(result.Snapshot, extractFormat, extractOutput)
	},
}

// readDocument loads a document file. JSON files carry document id, entity
// hints, and section bounds; anything else is treated as raw lines.
func readDocument(path string) (*documentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read document %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var input documentInput
		if err := json.Unmarshal(data, &input); err != nil {
			return nil, eris.Wrapf(err, "parse document %s", path)
		}
		if input.DocumentID == "" {
			input.DocumentID = docIDFromPath(path)
		}
		return &input, nil
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &documentInput{
		DocumentID: docIDFromPath(path),
		Lines:      strings.Split(strings.TrimRight(text, "\n"), "\n"),
	}, nil
}

func docIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// persistResult stores the run, its quality report, and the accepted records.
func persistResult(ctx context.Context, st store.Store, result pipeline.Result) error {
	if _, err := st.CreateRun(ctx, result.RunID, result.DocumentID); err != nil {
		return eris.Wrap(err, "create run")
	}

	runResult := result.RunResult()
	if err := st.UpdateRunResult(ctx, result.RunID, &runResult); err != nil {
		return eris.Wrap(err, "update run result")
	}
	if err := st.SaveReport(ctx, result.RunID, result.Snapshot); err != nil {
		return eris.Wrap(err, "save report")
	}
	if err := st.SaveRecords(ctx, result.RunID, result.Experiences, result.Education); err != nil {
		return eris.Wrap(err, "save records")
	}
	return nil
}

// writeSnapshot renders the quality report to the requested destination.
func writeSnapshot(snapshot metrics.Snapshot, format, output string) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrapf(err, "create output %s", output)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return snapshot.WriteJSON(w)
	case "yaml", "":
		return snapshot.WriteYAML(w)
	default:
		return eris.Errorf("unknown format %q (want yaml or json)", format)
	}
}

func init() {
	extractCmd.Flags().StringVar(&extractDocID, "doc-id", "", "override the document id")
	extractCmd.Flags().StringVar(&extractFormat, "format", "yaml", "report format: yaml or json")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "write the report to a file instead of stdout")
	extractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "skip persistence, only print the report")
	rootCmd.AddCommand(extractCmd)
}
