// Package store persists extraction runs, their quality reports, and the
// accepted records. Two backends exist: SQLite for single-machine use and
// Postgres for shared deployments.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/metrics"
	"github.com/talentsift/cvgate/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status     model.RunStatus `json:"status,omitempty"`
	DocumentID string          `json:"document_id,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the extraction engine.
type Store interface {
	// Runs. CreateRun keeps the caller's id when given one, so the stored
	// run matches the id the pipeline already logged.
	CreateRun(ctx context.Context, id, documentID string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Quality reports, one snapshot per run.
	SaveReport(ctx context.Context, runID string, snapshot metrics.Snapshot) error
	GetReport(ctx context.Context, runID string) (*metrics.Snapshot, error)

	// Accepted records of one run, stored flat for querying.
	SaveRecords(ctx context.Context, runID string, exps []*model.ExperienceCandidate, edus []*model.EducationCandidate) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the configured backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// recordColumns is the flat record layout shared by both backends.
var recordColumns = []string{
	"id", "run_id", "kind", "strategy", "headline", "org",
	"start_date", "end_date", "confidence", "flags",
}

// recordRows flattens the accepted candidates of one run into insertable
// rows. IDs are assigned by the caller's backend.
func recordRows(runID string, ids []string, exps []*model.ExperienceCandidate, edus []*model.EducationCandidate) ([][]any, error) {
	rows := make([][]any, 0, len(exps)+len(edus))
	i := 0
	appendRow := func(kind model.Kind, strategy model.Strategy, headline, org, start, end string, confidence float64, flags []string) error {
		flagsJSON, err := json.Marshal(flags)
		if err != nil {
			return eris.Wrap(err, "store: marshal flags")
		}
		rows = append(rows, []any{
			ids[i], runID, string(kind), string(strategy),
			headline, org, start, end, confidence, string(flagsJSON),
		})
		i++
		return nil
	}

	for _, e := range exps {
		if err := appendRow(model.KindExperience, e.Strategy, e.Title, e.Company,
			e.StartDate, e.EndDate, e.Confidence, e.Flags); err != nil {
			return nil, err
		}
	}
	for _, e := range edus {
		if err := appendRow(model.KindEducation, e.Strategy, e.Degree, e.School,
			e.StartDate, e.EndDate, e.Confidence, e.Flags); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// statusForResult maps a run result to its terminal status.
func statusForResult(result *model.RunResult) model.RunStatus {
	if result != nil && result.Error != "" {
		return model.RunStatusFailed
	}
	return model.RunStatusComplete
}
