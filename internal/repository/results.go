package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/finreport-extractor/constants"
	"github.com/joseph-ayodele/finreport-extractor/internal/common"
	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

const resultsDDL = `CREATE TABLE IF NOT EXISTS extraction_results (
	run_id             TEXT NOT NULL,
	document_id        TEXT NOT NULL,
	position           INTEGER NOT NULL,
	company_name       TEXT,
	report_date        TEXT,
	profit_before_tax  TEXT,
	additional_details TEXT NOT NULL,
	source             TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	PRIMARY KEY (run_id, document_id)
)`

// StoredResult is one persisted row.
type StoredResult struct {
	RunID      string
	DocumentID string
	Position   int
	Record     entity.Record
	Source     constants.RecordSource
	CreatedAt  time.Time
}

type ResultRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveResultSet(ctx context.Context, runID string, rs *entity.ResultSet) error
	ListRun(ctx context.Context, runID string) ([]StoredResult, error)
}

type resultRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewResultRepository(db *DB, logger *slog.Logger) ResultRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &resultRepository{db: db, logger: logger, now: time.Now}
}

func (r *resultRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.SQL.ExecContext(ctx, resultsDDL); err != nil {
		r.logger.Error("repository.schema.failed", "error", err)
		return fmt.Errorf("create extraction_results: %w", err)
	}
	return nil
}

// SaveResultSet upserts every entry of rs under runID in one transaction.
// Absent fields are stored as NULL.
func (r *resultRepository) SaveResultSet(ctx context.Context, runID string, rs *entity.ResultSet) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("%w: run id is required", common.ErrInvalidInput)
	}
	start := time.Now()

	p := r.db.placeholder
	query := fmt.Sprintf(`INSERT INTO extraction_results
	(run_id, document_id, position, company_name, report_date, profit_before_tax, additional_details, source, created_at)
	VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)
	ON CONFLICT (run_id, document_id) DO UPDATE SET
	position = excluded.position,
	company_name = excluded.company_name,
	report_date = excluded.report_date,
	profit_before_tax = excluded.profit_before_tax,
	additional_details = excluded.additional_details,
	source = excluded.source,
	created_at = excluded.created_at`,
		p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8), p(9))

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	createdAt := r.now().UTC().Format(time.RFC3339Nano)
	for i, e := range rs.Entries() {
		details, err := entity.EncodeNoEscape(e.Record.Details())
		if err != nil {
			return fmt.Errorf("encode details for %s: %w", e.DocumentID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, e.DocumentID, i,
			nullString(e.Record.CompanyName),
			nullString(e.Record.ReportDate),
			nullString(e.Record.ProfitBeforeTax),
			string(details), string(e.Source), createdAt,
		); err != nil {
			r.logger.Error("repository.upsert.failed", "run_id", runID, "doc", e.DocumentID, "error", err)
			return fmt.Errorf("upsert %s: %w", e.DocumentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("repository.save.ok",
		"run_id", runID,
		"rows", rs.Len(),
		"dialect", r.db.Dialect,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (r *resultRepository) ListRun(ctx context.Context, runID string) ([]StoredResult, error) {
	query := fmt.Sprintf(`SELECT run_id, document_id, position, company_name, report_date, profit_before_tax,
	additional_details, source, created_at
	FROM extraction_results WHERE run_id = %s ORDER BY position`, r.db.placeholder(1))

	rows, err := r.db.SQL.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []StoredResult
	for rows.Next() {
		var (
			s                     StoredResult
			company, date, profit sql.NullString
			details, source, ts   string
		)
		if err := rows.Scan(&s.RunID, &s.DocumentID, &s.Position, &company, &date, &profit, &details, &source, &ts); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		s.Record = entity.Record{
			CompanyName:       fromNull(company),
			ReportDate:        fromNull(date),
			ProfitBeforeTax:   fromNull(profit),
			AdditionalDetails: map[string]any{},
		}
		if err := json.Unmarshal([]byte(details), &s.Record.AdditionalDetails); err != nil {
			return nil, fmt.Errorf("decode details for %s: %w", s.DocumentID, err)
		}
		s.Source = constants.RecordSource(source)
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Sink adapts a ResultRepository to the batch runner. The run id comes from the context
// (set by the runner); a fresh one is generated when absent.
type Sink struct {
	Repo ResultRepository
}

func (s *Sink) Write(ctx context.Context, rs *entity.ResultSet) error {
	runID := common.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.New().String()
	}
	if err := s.Repo.SaveResultSet(ctx, runID, rs); err != nil {
		return common.NewAppError(common.CodePersistence, "save results", err)
	}
	return nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return entity.Str(ns.String)
}
