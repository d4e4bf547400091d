package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

// voteRepository stores each record as a self-describing JSONB document
// keyed by the identity email. The document is the source of truth; the
// email column exists only as the key.
type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

func (r *voteRepository) Get(ctx context.Context, email string) (*domain.VoteRecord, error) {
	query := `SELECT doc FROM votes WHERE email = $1`
	var doc []byte
	err := r.db.QueryRowContext(ctx, query, email).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vote record: %w", err)
	}
	return decodeRecord(doc)
}

func (r *voteRepository) Put(ctx context.Context, record *domain.VoteRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode vote record: %w", err)
	}

	query := `
		INSERT INTO votes (email, doc)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, record.Email, doc); err != nil {
		return fmt.Errorf("failed to save vote record: %w", err)
	}
	return nil
}

func (r *voteRepository) Create(ctx context.Context, record *domain.VoteRecord) (bool, error) {
	doc, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to encode vote record: %w", err)
	}

	query := `INSERT INTO votes (email, doc) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, record.Email, doc)
	if err != nil {
		return false, fmt.Errorf("failed to create vote record: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return inserted == 1, nil
}

func (r *voteRepository) ScanAll(ctx context.Context) ([]*domain.VoteRecord, error) {
	query := `SELECT doc FROM votes ORDER BY email`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan vote records: %w", err)
	}
	defer rows.Close()

	var records []*domain.VoteRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan vote record row: %w", err)
		}
		record, err := decodeRecord(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vote records: %w", err)
	}
	return records, nil
}

func decodeRecord(doc []byte) (*domain.VoteRecord, error) {
	record := &domain.VoteRecord{}
	if err := json.Unmarshal(doc, record); err != nil {
		return nil, fmt.Errorf("failed to decode vote record: %w", err)
	}
	return record, nil
}
