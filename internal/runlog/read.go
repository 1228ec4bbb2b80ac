package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lumenlab/kaleido/internal/harness"
)

// NotFoundError reports a session token with no stored run.
type NotFoundError struct {
	SessionToken string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("run %q not found", e.SessionToken)
}

// IsNotFound returns true if err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// Summary is one row of a run listing.
type Summary struct {
	SessionToken string  `json:"session_token"`
	AssetName    string  `json:"asset_name"`
	Source       string  `json:"source"`
	Steps        int     `json:"steps"`
	Dt           float64 `json:"dt"`
	Updates      int     `json:"updates"`
	Issues       int     `json:"issues"`
}

// ReadRun loads a stored run and its full trace.
// Returns *NotFoundError if the session token is unknown.
func (s *Store) ReadRun(ctx context.Context, sessionToken string) (*Record, error) {
	var (
		rec       Record
		stateRaw  string
		issuesRaw string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT session_token, asset_name, source, steps, dt, state, issues
		FROM runs WHERE session_token = ?
	`, sessionToken).Scan(
		&rec.SessionToken,
		&rec.AssetName,
		&rec.Source,
		&rec.Steps,
		&rec.Dt,
		&stateRaw,
		&issuesRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{SessionToken: sessionToken}
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	if rec.State, err = decodeState(stateRaw); err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	if rec.Issues, err = decodeIssues(issuesRaw); err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, step, time, rule, target, value
		FROM updates WHERE session_token = ?
		ORDER BY seq ASC
	`, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("read run: query updates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ev harness.TraceEvent
		if err := rows.Scan(&ev.Seq, &ev.Step, &ev.Time, &ev.Rule, &ev.Target, &ev.Value); err != nil {
			return nil, fmt.Errorf("read run: scan update: %w", err)
		}
		rec.Trace = append(rec.Trace, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read run: iterate updates: %w", err)
	}

	return &rec, nil
}

// ListRuns returns a summary of every stored run. Session tokens are
// UUIDv7 (time-sortable), so token order is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			r.session_token, r.asset_name, r.source, r.steps, r.dt,
			(SELECT COUNT(*) FROM updates u WHERE u.session_token = r.session_token),
			json_array_length(r.issues)
		FROM runs r
		ORDER BY r.session_token ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(
			&sum.SessionToken,
			&sum.AssetName,
			&sum.Source,
			&sum.Steps,
			&sum.Dt,
			&sum.Updates,
			&sum.Issues,
		); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: iterate: %w", err)
	}
	return out, nil
}
