package store

import (
	"context"
	"fmt"
	"strings"
)

// BuildFilter selects builds. Zero fields match everything.
type BuildFilter struct {
	Status     string
	ConfigPath string
	ConfigHash string

	// Limit caps the result; non-positive means no cap.
	Limit int
}

// predicate is one "column = ?" term of a WHERE clause.
type predicate struct {
	column string
	value  any
}

// compile turns f into parameterized SQL over builds. Values are never
// interpolated, and results are always ordered newest first.
func (f BuildFilter) compile() (string, []any, error) {
	if f.Status != "" && f.Status != StatusOK && f.Status != StatusFailed {
		return "", nil, fmt.Errorf("invalid status filter %q", f.Status)
	}

	var preds []predicate
	if f.Status != "" {
		preds = append(preds, predicate{"status", f.Status})
	}
	if f.ConfigPath != "" {
		preds = append(preds, predicate{"config_path", f.ConfigPath})
	}
	if f.ConfigHash != "" {
		preds = append(preds, predicate{"config_hash", f.ConfigHash})
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + buildColumns + ` FROM builds`)

	args := make([]any, 0, len(preds)+1)
	for i, p := range preds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(p.column + " = ?")
		args = append(args, p.value)
	}

	// seq is unique, so the order is total.
	sb.WriteString(" ORDER BY seq DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	return sb.String(), args, nil
}

// FindBuilds returns the builds matching f, newest first.
func (s *Store) FindBuilds(ctx context.Context, f BuildFilter) ([]Build, error) {
	query, args, err := f.compile()
	if err != nil {
		return nil, fmt.Errorf("find builds: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("find builds: %w", err)
		}
		builds = append(builds, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find builds: %w", err)
	}
	return builds, nil
}
