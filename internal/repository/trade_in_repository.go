package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tradein-service/internal/domain"
)

// TradeInRepository encapsulates trade-in persistence.
type TradeInRepository interface {
	Create(ctx context.Context, req *domain.TradeInRequest) error
	GetByID(ctx context.Context, id string) (*domain.TradeInRequest, error)
	Update(ctx context.Context, req *domain.TradeInRequest, newEntries int) error
	ListHistory(ctx context.Context, id string) ([]domain.HistoryEntry, error)
	List(ctx context.Context, filter TradeInFilter) (*TradeInPage, error)
}

const requestColumns = `id, user_id, owner_email, device_type, brand, model, condition, specifications,
               description, estimated_price, final_price, images, status, admin_notes, tracking_number,
               bank_details, inspection_results, version, created_at, updated_at`

const (
	insertRequestSQL = `
        INSERT INTO trade_in_requests (id, user_id, owner_email, device_type, brand, model, condition, specifications,
            description, estimated_price, final_price, images, status, admin_notes, tracking_number,
            bank_details, inspection_results, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`

	// estimated_price and user_id are deliberately absent: both are fixed at creation.
	updateRequestSQL = `
        UPDATE trade_in_requests SET images=$1, status=$2, final_price=$3, admin_notes=$4, tracking_number=$5,
            bank_details=$6, inspection_results=$7, version=version+1, updated_at=$8
        WHERE id=$9 AND version=$10`

	getRequestSQL = `SELECT ` + requestColumns + ` FROM trade_in_requests WHERE id=$1`
)

type tradeInRepository struct {
	pool    PgxPool
	history historyStore
}

// NewTradeInRepository instantiates the Postgres repository.
func NewTradeInRepository(pool PgxPool) TradeInRepository {
	return &tradeInRepository{pool: pool}
}

// Create stores the request and its initial history in one transaction.
func (r *tradeInRepository) Create(ctx context.Context, req *domain.TradeInRequest) (err error) {
	specs, bank, inspection, err := encodeDocuments(req)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	if req.Version == 0 {
		req.Version = 1
	}
	if _, err = tx.Exec(ctx, insertRequestSQL,
		req.ID,
		req.UserID,
		req.OwnerEmail,
		string(req.DeviceType),
		req.Brand,
		req.Model,
		string(req.Condition),
		specs,
		req.Description,
		req.EstimatedPrice,
		req.FinalPrice,
		req.ImageList(),
		string(req.Status),
		req.AdminNotes,
		req.TrackingNumber,
		bank,
		inspection,
		req.Version,
		req.CreatedAt,
		req.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert trade-in request: %w", err)
	}

	for i := range req.History {
		if err = r.history.append(ctx, tx, req.ID, &req.History[i]); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return nil
}

// GetByID loads a request together with its full history.
func (r *tradeInRepository) GetByID(ctx context.Context, id string) (*domain.TradeInRequest, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, getRequestSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	history, err := r.history.list(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	req.History = history
	return req, nil
}

// Update writes the mutable fields if req.Version still matches the stored
// version and appends the last newEntries history entries in the same
// transaction. On success req.Version is incremented.
func (r *tradeInRepository) Update(ctx context.Context, req *domain.TradeInRequest, newEntries int) (err error) {
	if newEntries < 0 || newEntries > len(req.History) {
		return fmt.Errorf("invalid history entry count %d", newEntries)
	}
	_, bank, inspection, err := encodeDocuments(req)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	tag, err := tx.Exec(ctx, updateRequestSQL,
		req.ImageList(),
		string(req.Status),
		req.FinalPrice,
		req.AdminNotes,
		req.TrackingNumber,
		bank,
		inspection,
		req.UpdatedAt,
		req.ID,
		req.Version,
	)
	if err != nil {
		return fmt.Errorf("update trade-in request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	for i := len(req.History) - newEntries; i < len(req.History); i++ {
		if err = r.history.append(ctx, tx, req.ID, &req.History[i]); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	req.Version++
	return nil
}

// ListHistory returns the ordered history of a request.
func (r *tradeInRepository) ListHistory(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM trade_in_requests WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return r.history.list(ctx, r.pool, id)
}

func encodeDocuments(req *domain.TradeInRequest) (specs, bank, inspection []byte, err error) {
	if specs, err = json.Marshal(req.Specifications); err != nil {
		return nil, nil, nil, fmt.Errorf("encode specifications: %w", err)
	}
	if req.BankDetails != nil {
		if bank, err = json.Marshal(req.BankDetails); err != nil {
			return nil, nil, nil, fmt.Errorf("encode bank details: %w", err)
		}
	}
	if req.InspectionResults != nil {
		if inspection, err = json.Marshal(req.InspectionResults); err != nil {
			return nil, nil, nil, fmt.Errorf("encode inspection results: %w", err)
		}
	}
	return specs, bank, inspection, nil
}

func scanRequest(row pgx.Row) (*domain.TradeInRequest, error) {
	var (
		req                       domain.TradeInRequest
		deviceType, condition, st string
		specs, bank, inspection   []byte
	)
	if err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.OwnerEmail,
		&deviceType,
		&req.Brand,
		&req.Model,
		&condition,
		&specs,
		&req.Description,
		&req.EstimatedPrice,
		&req.FinalPrice,
		&req.Images,
		&st,
		&req.AdminNotes,
		&req.TrackingNumber,
		&bank,
		&inspection,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	req.DeviceType = domain.DeviceType(deviceType)
	req.Condition = domain.Condition(condition)
	req.Status = domain.TradeInStatus(st)

	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &req.Specifications); err != nil {
			return nil, fmt.Errorf("decode specifications: %w", err)
		}
	}
	if len(bank) > 0 {
		req.BankDetails = &domain.BankDetails{}
		if err := json.Unmarshal(bank, req.BankDetails); err != nil {
			return nil, fmt.Errorf("decode bank details: %w", err)
		}
	}
	if len(inspection) > 0 {
		req.InspectionResults = &domain.InspectionReport{}
		if err := json.Unmarshal(inspection, req.InspectionResults); err != nil {
			return nil, fmt.Errorf("decode inspection results: %w", err)
		}
	}
	if req.Images == nil {
		req.Images = []string{}
	}
	return &req, nil
}
