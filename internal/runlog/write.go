package runlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lumenlab/kaleido/internal/harness"
	"github.com/lumenlab/kaleido/internal/mirror"
)

// Record is one stored simulation run.
type Record struct {
	// SessionToken is the run's unique identity.
	SessionToken string `json:"session_token"`

	// AssetName is the loaded asset's name.
	AssetName string `json:"asset_name"`

	// Source is the asset source the run was bound to.
	Source string `json:"source"`

	// Steps and Dt are the run parameters.
	Steps int     `json:"steps"`
	Dt    float64 `json:"dt"`

	// State is the final mirror state.
	State mirror.Snapshot `json:"state"`

	// Issues are the load-time validation issues.
	Issues []string `json:"issues,omitempty"`

	// Trace is the run's mirror-update trace, in seq order.
	Trace []harness.TraceEvent `json:"trace"`
}

// WriteRun stores a run record and its trace in a single transaction.
//
// Idempotent on the session token: if the run already exists, nothing
// is written and no error is returned.
func (s *Store) WriteRun(ctx context.Context, rec Record) error {
	stateJSON, err := mirror.MarshalCanonical(rec.State)
	if err != nil {
		return fmt.Errorf("write run: marshal state: %w", err)
	}

	issues := make([]any, len(rec.Issues))
	for i, issue := range rec.Issues {
		issues[i] = issue
	}
	issuesJSON, err := mirror.MarshalCanonical(issues)
	if err != nil {
		return fmt.Errorf("write run: marshal issues: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(session_token, asset_name, source, steps, dt, state, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_token) DO NOTHING
	`,
		rec.SessionToken,
		rec.AssetName,
		rec.Source,
		rec.Steps,
		rec.Dt,
		string(stateJSON),
		string(issuesJSON),
	)
	if err != nil {
		return fmt.Errorf("write run: insert run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: rows affected: %w", err)
	}
	if rows == 0 {
		// Run already recorded; the trace was written with it.
		return tx.Commit()
	}

	for _, ev := range rec.Trace {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO updates
			(session_token, seq, step, time, rule, target, value)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			rec.SessionToken,
			ev.Seq,
			ev.Step,
			ev.Time,
			ev.Rule,
			ev.Target,
			ev.Value,
		)
		if err != nil {
			return fmt.Errorf("write run: insert update seq %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// NewRecord builds a Record from a run result.
func NewRecord(assetName, source string, result *harness.Result) Record {
	return Record{
		SessionToken: result.SessionToken,
		AssetName:    assetName,
		Source:       source,
		Steps:        result.Steps,
		Dt:           result.Dt,
		State:        result.State,
		Issues:       result.Issues,
		Trace:        result.Trace,
	}
}

// decodeState parses a stored canonical-JSON state column.
func decodeState(raw string) (mirror.Snapshot, error) {
	var state mirror.Snapshot
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// decodeIssues parses a stored canonical-JSON issues column.
func decodeIssues(raw string) ([]string, error) {
	var issues []string
	if err := json.Unmarshal([]byte(raw), &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}
