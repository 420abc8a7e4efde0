package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"career-matching/internal/common/config"
	"career-matching/internal/common/database"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/models"
)

// PostgresSource reads the careers table in insertion (id) order.
type PostgresSource struct {
	db    *database.PostgresClient
	table string
}

type careerRow struct {
	CareerName     string         `db:"career_name"`
	Description    sql.NullString `db:"description"`
	RequiredSkills sql.NullString `db:"required_skills"`
	Qualifications sql.NullString `db:"qualifications"`
	IndustryType   sql.NullString `db:"industry_type"`
}

func (r careerRow) entry() models.CareerCatalogEntry {
	return models.CareerCatalogEntry{
		Name:           r.CareerName,
		Description:    r.Description.String,
		RequiredSkills: ParseRequiredSkills(r.RequiredSkills.String),
		Qualifications: r.Qualifications.String,
		IndustryType:   r.IndustryType.String,
	}
}

func NewPostgresSource(db *database.PostgresClient, table string) (*PostgresSource, error) {
	if table == "" {
		table = "careers"
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}
	return &PostgresSource{db: db, table: table}, nil
}

func (s *PostgresSource) Name() string { return config.CatalogSourcePostgres }

func (s *PostgresSource) Load(ctx context.Context) (*Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT career_name, description, required_skills, qualifications, industry_type
		FROM %s
		ORDER BY id`, s.table)

	var rows []careerRow
	if err := s.db.DB.SelectContext(ctx, &rows, query); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewQueryTimeoutError(string(models.QueryTypeCatalog))
		}
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}

	entries := make([]models.CareerCatalogEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry()
	}
	return requireEntries(s.Name(), entries)
}

// Replace swaps the table contents in one transaction. Required skills are stored as JSON arrays.
func (s *PostgresSource) Replace(ctx context.Context, entries []models.CareerCatalogEntry) (int, error) {
	tx, err := s.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return 0, apperrors.NewQueryExecutionFailedError(string(models.QueryTypeCatalogDelete), err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (career_name, description, required_skills, qualifications, industry_type)
		VALUES (:career_name, :description, :required_skills, :qualifications, :industry_type)`, s.table)

	snap := NewSnapshot(s.Name(), entries)
	for _, e := range snap.Entries() {
		skills, _ := json.Marshal(e.RequiredSkills)
		row := careerRow{
			CareerName:     e.Name,
			Description:    sql.NullString{String: e.Description, Valid: true},
			RequiredSkills: sql.NullString{String: string(skills), Valid: true},
			Qualifications: sql.NullString{String: e.Qualifications, Valid: e.Qualifications != ""},
			IndustryType:   sql.NullString{String: e.IndustryType, Valid: e.IndustryType != ""},
		}
		if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
			return 0, apperrors.NewDatabaseInsertFailedError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewDatabaseInsertFailedError(err)
	}
	return snap.Len(), nil
}
