package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"dealintake/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// activeStatuses are the deal statuses the duplicate classifier compares against
var activeStatuses = []string{"open", "negotiation"}

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute) // Shorter lifetime to avoid stale connections
	db.SetConnMaxIdleTime(2 * time.Minute) // Close idle connections sooner

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresRepositoryFromDB(db), nil
}

// NewPostgresRepositoryFromDB wraps an existing connection
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks the connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// historyRow is the storage shape of an intake history entry
type historyRow struct {
	ID            string                 `db:"id"`
	Content       string                 `db:"content"`
	ReceivedAt    time.Time              `db:"received_at"`
	Category      string                 `db:"category"`
	Details       *model.PropertyDetails `db:"details"`
	DuplicateInfo []byte                 `db:"duplicate_info"`
}

// LoadHistory returns entries received at or after since, oldest first
func (r *PostgresRepository) LoadHistory(ctx context.Context, since time.Time) ([]model.IntakeHistoryEntry, error) {
	query := `
		SELECT id, content, received_at, category, details, duplicate_info
		FROM intake_history
		WHERE received_at >= $1
		ORDER BY received_at ASC, created_at ASC
	`
	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	entries := make([]model.IntakeHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry := model.IntakeHistoryEntry{
			ID:         row.ID,
			Content:    row.Content,
			ReceivedAt: row.ReceivedAt,
			Category:   row.Category,
			Details:    row.Details,
		}
		if len(row.DuplicateInfo) > 0 {
			var info model.DuplicateAssessment
			if err := json.Unmarshal(row.DuplicateInfo, &info); err != nil {
				return nil, fmt.Errorf("failed to decode duplicate info for %s: %w", row.ID, err)
			}
			entry.DuplicateInfo = &info
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// AppendHistory stores one history entry
func (r *PostgresRepository) AppendHistory(ctx context.Context, entry model.IntakeHistoryEntry) error {
	var info []byte
	if entry.DuplicateInfo != nil {
		var err error
		if info, err = json.Marshal(entry.DuplicateInfo); err != nil {
			return fmt.Errorf("failed to encode duplicate info: %w", err)
		}
	}

	query := `
		INSERT INTO intake_history (id, content, received_at, category, details, duplicate_info)
		VALUES (:id, :content, :received_at, :category, :details, :duplicate_info)
	`
	_, err := r.db.NamedExecContext(ctx, query, historyRow{
		ID:            entry.ID,
		Content:       entry.Content,
		ReceivedAt:    entry.ReceivedAt,
		Category:      entry.Category,
		Details:       entry.Details,
		DuplicateInfo: info,
	})
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// PruneHistory deletes entries received before cutoff
func (r *PostgresRepository) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM intake_history WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned history: %w", err)
	}
	return n, nil
}

// GetHistoryEntry retrieves a single history entry by its ID
func (r *PostgresRepository) GetHistoryEntry(ctx context.Context, id string) (*model.IntakeHistoryEntry, error) {
	var row historyRow
	query := `
		SELECT id, content, received_at, category, details, duplicate_info
		FROM intake_history
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}

	entry := &model.IntakeHistoryEntry{
		ID:         row.ID,
		Content:    row.Content,
		ReceivedAt: row.ReceivedAt,
		Category:   row.Category,
		Details:    row.Details,
	}
	if len(row.DuplicateInfo) > 0 {
		var info model.DuplicateAssessment
		if err := json.Unmarshal(row.DuplicateInfo, &info); err != nil {
			return nil, fmt.Errorf("failed to decode duplicate info: %w", err)
		}
		entry.DuplicateInfo = &info
	}
	return entry, nil
}

// ActiveDeals lists open deals projected onto the comparable fields
func (r *PostgresRepository) ActiveDeals(ctx context.Context) ([]model.ActiveDeal, error) {
	query := `
		SELECT
			id,
			COALESCE(unit_number, '') AS unit_number,
			COALESCE(project, '') AS project,
			COALESCE(location, '') AS location,
			COALESCE(category, '') AS category,
			COALESCE(type, '') AS type,
			COALESCE(city, '') AS city
		FROM deals
		WHERE status = ANY($1)
		ORDER BY created_at DESC
	`
	var deals []model.ActiveDeal
	if err := r.db.SelectContext(ctx, &deals, query, pq.Array(activeStatuses)); err != nil {
		return nil, fmt.Errorf("failed to list active deals: %w", err)
	}
	return deals, nil
}

// ListInventory returns the whole inventory book, newest first
func (r *PostgresRepository) ListInventory(ctx context.Context) ([]model.InventoryRecord, error) {
	query := `
		SELECT
			id, project_name, block, unit_number, category, sub_category,
			size, size_unit, price, city, sector, area, owners, address,
			created_at, updated_at
		FROM inventory
		ORDER BY created_at DESC
	`
	var records []model.InventoryRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return records, nil
}

// ListContacts returns every known contact
func (r *PostgresRepository) ListContacts(ctx context.Context) ([]model.ContactInfo, error) {
	var contacts []model.ContactInfo
	query := `SELECT id, mobile, name, role FROM contacts ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &contacts, query); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}
