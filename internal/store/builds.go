package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a build or artifact does not exist.
var ErrNotFound = errors.New("not found")

// Build statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Build is one compile run.
type Build struct {
	ID              string       `json:"id"`
	Seq             int64        `json:"seq"`
	CreatedAt       time.Time    `json:"created_at"`
	ConfigPath      string       `json:"config_path"`
	ConfigHash      string       `json:"config_hash"`
	Description     string       `json:"description,omitempty"`
	Rules           int          `json:"rules"`
	Productions     int          `json:"productions"`
	ProductionsHash string       `json:"productions_hash,omitempty"`
	OutputHash      string       `json:"output_hash,omitempty"`
	Status          string       `json:"status"`
	Errors          []BuildError `json:"errors,omitempty"`
}

// BuildError is one diagnostic of a failed build.
type BuildError struct {
	Code    string `json:"code"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// RecordBuild inserts b, storing output as its artifact when non-empty. ID,
// Seq and CreatedAt are assigned and written back to b.
func (s *Store) RecordBuild(ctx context.Context, b *Build, output []byte, outputHash string) error {
	if b.Status != StatusOK && b.Status != StatusFailed {
		return fmt.Errorf("record build: invalid status %q", b.Status)
	}
	if len(output) > 0 && outputHash == "" {
		return fmt.Errorf("record build: output without hash")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("record build: generate id: %w", err)
	}

	errs := b.Errors
	if errs == nil {
		errs = []BuildError{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("record build: marshal errors: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record build: begin: %w", err)
	}
	defer tx.Rollback()

	var outHash sql.NullString
	if len(output) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts (hash, body) VALUES (?, ?)
			ON CONFLICT(hash) DO NOTHING
		`, outputHash, output); err != nil {
			return fmt.Errorf("record build: write artifact: %w", err)
		}
		outHash = sql.NullString{String: outputHash, Valid: true}
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM builds`).Scan(&seq); err != nil {
		return fmt.Errorf("record build: next seq: %w", err)
	}

	created := s.now().UTC().Truncate(time.Millisecond)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO builds
		(id, seq, created_at, config_path, config_hash, description, rule_count,
		 production_count, productions_hash, output_hash, status, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id.String(),
		seq,
		created.UnixMilli(),
		b.ConfigPath,
		b.ConfigHash,
		b.Description,
		b.Rules,
		b.Productions,
		b.ProductionsHash,
		outHash,
		b.Status,
		string(errsJSON),
	); err != nil {
		return fmt.Errorf("record build: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record build: commit: %w", err)
	}

	b.ID = id.String()
	b.Seq = seq
	b.CreatedAt = created
	b.OutputHash = outHash.String
	b.Errors = errs
	return nil
}

const buildColumns = `id, seq, created_at, config_path, config_hash, description, rule_count,
	production_count, productions_hash, output_hash, status, errors`

// ListBuilds returns up to limit builds, newest first. A non-positive limit
// returns every build.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]Build, error) {
	return s.FindBuilds(ctx, BuildFilter{Limit: limit})
}

// GetBuild returns the build with the given ID.
func (s *Store) GetBuild(ctx context.Context, id string) (*Build, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buildColumns+` FROM builds WHERE id = ?`, id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get build: %w", err)
	}
	return b, nil
}

// LatestBuild returns the newest successful build of a config path.
func (s *Store) LatestBuild(ctx context.Context, configPath string) (*Build, error) {
	builds, err := s.FindBuilds(ctx, BuildFilter{Status: StatusOK, ConfigPath: configPath, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("latest build: %w", err)
	}
	if len(builds) == 0 {
		return nil, fmt.Errorf("no successful build of %s: %w", configPath, ErrNotFound)
	}
	return &builds[0], nil
}

// Artifact returns the output stored under hash.
func (s *Store) Artifact(ctx context.Context, hash string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM artifacts WHERE hash = ?`, hash).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	return body, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (*Build, error) {
	var (
		b         Build
		createdMS int64
		outHash   sql.NullString
		errsJSON  string
	)
	if err := row.Scan(
		&b.ID,
		&b.Seq,
		&createdMS,
		&b.ConfigPath,
		&b.ConfigHash,
		&b.Description,
		&b.Rules,
		&b.Productions,
		&b.ProductionsHash,
		&outHash,
		&b.Status,
		&errsJSON,
	); err != nil {
		return nil, err
	}
	b.CreatedAt = time.UnixMilli(createdMS).UTC()
	b.OutputHash = outHash.String
	if err := json.Unmarshal([]byte(errsJSON), &b.Errors); err != nil {
		return nil, fmt.Errorf("decode errors of build %s: %w", b.ID, err)
	}
	return &b, nil
}
