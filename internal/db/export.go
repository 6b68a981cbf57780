package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/strrl/idea-vault/pkg/models"
)

// Format is an output format DuckDB can COPY to
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
)

// exportMu serialises use of the shared staging table
var exportMu sync.Mutex

// ParseFormat accepts a format name case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatParquet, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want parquet, csv or json)", s)
	}
}

// FormatForPath picks the format from the file extension, falling back to
// parquet
func FormatForPath(path string) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return FormatParquet
}

func (f Format) copyOptions() string {
	switch f {
	case FormatCSV:
		return "(FORMAT csv, HEADER)"
	case FormatJSON:
		return "(FORMAT json)"
	default:
		return "(FORMAT parquet)"
	}
}

// ExportIdeas stages ideas in a temporary table and copies them, newest
// first, to path
func ExportIdeas(ctx context.Context, db *sql.DB, ideas []models.Idea, path string, format Format) error {
	exportMu.Lock()
	defer exportMu.Unlock()

	if format == FormatJSON {
		if err := loadExtension(db, "json"); err != nil {
			return err
		}
	}

	if _, err := db.ExecContext(ctx, `CREATE OR REPLACE TEMP TABLE ideas_export (
		id BIGINT,
		user_id VARCHAR,
		content VARCHAR,
		created_at TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}
	defer func() {
		if _, err := db.Exec("DROP TABLE IF EXISTS ideas_export"); err != nil {
			log.Warn().Err(err).Msg("Failed to drop export staging table")
		}
	}()

	if err := stageIdeas(ctx, db, ideas); err != nil {
		return err
	}

	query := fmt.Sprintf(
		"COPY (SELECT id, user_id, content, created_at FROM ideas_export ORDER BY created_at DESC, id DESC) TO %s %s",
		quoteLiteral(path), format.copyOptions(),
	)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}

	log.Info().Int("ideas", len(ideas)).Str("format", string(format)).Str("path", path).Msg("Ideas exported")
	return nil
}

func stageIdeas(ctx context.Context, db *sql.DB, ideas []models.Idea) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin staging transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO ideas_export VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare staging insert: %w", err)
	}
	defer stmt.Close()

	for _, idea := range ideas {
		createdAt := idea.CreatedAt.UTC().Truncate(time.Microsecond)
		if _, err := stmt.ExecContext(ctx, idea.ID, idea.UserID.String(), idea.Content, createdAt); err != nil {
			return fmt.Errorf("failed to stage idea %d: %w", idea.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit staged ideas: %w", err)
	}
	return nil
}

// quoteLiteral renders s as a SQL string literal; COPY targets cannot be
// bound parameters
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
