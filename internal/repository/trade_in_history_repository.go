package repository

import (
	"context"

	"github.com/spec-kit/tradein-service/internal/domain"
)

const (
	insertHistorySQL = `
        INSERT INTO trade_in_history (request_id, status, note, updated_by, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`

	listHistorySQL = `
        SELECT id, status, note, updated_by, created_at
        FROM trade_in_history WHERE request_id=$1 ORDER BY created_at ASC, id ASC`
)

// historyStore appends and reads audit entries. Entries are never updated.
type historyStore struct{}

func (historyStore) append(ctx context.Context, q querier, requestID string, entry *domain.HistoryEntry) error {
	return q.QueryRow(ctx, insertHistorySQL,
		requestID,
		string(entry.Status),
		entry.Note,
		entry.UpdatedBy,
		entry.Timestamp,
	).Scan(&entry.ID)
}

func (historyStore) list(ctx context.Context, q querier, requestID string) ([]domain.HistoryEntry, error) {
	rows, err := q.Query(ctx, listHistorySQL, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			entry  domain.HistoryEntry
			status string
		)
		if err := rows.Scan(&entry.ID, &status, &entry.Note, &entry.UpdatedBy, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.Status = domain.TradeInStatus(status)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
