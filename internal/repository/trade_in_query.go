package repository

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/tradein-service/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	DefaultSortBy    = "createdAt"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
	defaultSortOrder = SortOrderDesc
)

// sortColumns whitelists the API sort keys and the columns they order by.
var sortColumns = map[string]string{
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
	"estimatedPrice": "estimated_price",
	"finalPrice":     "final_price",
	"status":         "status",
	"brand":          "brand",
	"deviceType":     "device_type",
}

// IsSortable reports whether field is an accepted sortBy value.
func IsSortable(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// TradeInFilter narrows a listing. Zero values mean "no constraint".
type TradeInFilter struct {
	UserID      string
	Status      domain.TradeInStatus
	DeviceType  domain.DeviceType
	Brand       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	MinPrice    *float64
	MaxPrice    *float64
	Search      string
	SortBy      string
	SortOrder   string
	Page        int
	Limit       int
}

// Normalize applies paging and sorting defaults.
func (f TradeInFilter) Normalize() TradeInFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if !IsSortable(f.SortBy) {
		f.SortBy = DefaultSortBy
	}
	f.SortOrder = strings.ToLower(f.SortOrder)
	if f.SortOrder != SortOrderAsc {
		f.SortOrder = defaultSortOrder
	}
	f.Brand = strings.TrimSpace(f.Brand)
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Pagination describes the returned page.
type Pagination struct {
	Total int64
	Pages int
	Page  int
	Limit int
}

// TradeInStats aggregates the whole filtered set, not only the page.
type TradeInStats struct {
	TotalRequests       int64
	TotalEstimatedValue float64
	AvgEstimatedValue   float64
	TotalFinalValue     float64
	DeviceTypes         []string
	Brands              []string
	StatusCounts        map[domain.TradeInStatus]int64
}

// TradeInPage is one page of a listing. Stats is nil when nothing matched.
type TradeInPage struct {
	Items      []domain.TradeInRequest
	Pagination Pagination
	Stats      *TradeInStats
}

const (
	statsSQL = `
        SELECT COUNT(*),
               COALESCE(SUM(estimated_price), 0),
               COALESCE(AVG(estimated_price), 0),
               COALESCE(SUM(final_price), 0),
               COALESCE(array_agg(DISTINCT device_type), '{}'),
               COALESCE(array_agg(DISTINCT brand), '{}')
        FROM trade_in_requests`

	statusCountSQL = `SELECT status, COUNT(*) FROM trade_in_requests`
)

// whereClause renders the filter into a WHERE fragment and its positional args.
func (f TradeInFilter) whereClause() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.DeviceType != "" {
		add("device_type = $%d", string(f.DeviceType))
	}
	if f.Brand != "" {
		add("brand = $%d", f.Brand)
	}
	if f.CreatedFrom != nil {
		add("created_at >= $%d", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("created_at <= $%d", *f.CreatedTo)
	}
	if f.MinPrice != nil {
		add("estimated_price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("estimated_price <= $%d", *f.MaxPrice)
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(model ILIKE $%d OR brand ILIKE $%d OR device_type ILIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns one page of requests matching filter plus aggregate stats over
// every match. The page and the aggregates are queried concurrently.
func (r *tradeInRepository) List(ctx context.Context, filter TradeInFilter) (*TradeInPage, error) {
	f := filter.Normalize()
	where, args := f.whereClause()

	var (
		items  []domain.TradeInRequest
		stats  TradeInStats
		counts map[domain.TradeInStatus]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = r.listItems(gctx, f, where, args)
		return err
	})
	g.Go(func() error {
		return r.pool.QueryRow(gctx, statsSQL+where, args...).Scan(
			&stats.TotalRequests,
			&stats.TotalEstimatedValue,
			&stats.AvgEstimatedValue,
			&stats.TotalFinalValue,
			&stats.DeviceTypes,
			&stats.Brands,
		)
	})
	g.Go(func() error {
		var err error
		counts, err = r.countByStatus(gctx, where, args)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list trade-in requests: %w", err)
	}

	page := &TradeInPage{
		Items: items,
		Pagination: Pagination{
			Total: stats.TotalRequests,
			Pages: int(math.Ceil(float64(stats.TotalRequests) / float64(f.Limit))),
			Page:  f.Page,
			Limit: f.Limit,
		},
	}
	if stats.TotalRequests > 0 {
		stats.StatusCounts = counts
		page.Stats = &stats
	}
	return page, nil
}

func (r *tradeInRepository) listItems(ctx context.Context, f TradeInFilter, where string, args []any) ([]domain.TradeInRequest, error) {
	order := strings.ToUpper(f.SortOrder)
	query := fmt.Sprintf("SELECT %s FROM trade_in_requests%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d",
		requestColumns, where, sortColumns[f.SortBy], order, order, len(args)+1, len(args)+2)
	pageArgs := append(append(make([]any, 0, len(args)+2), args...), f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.pool.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.TradeInRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *req)
	}
	return items, rows.Err()
}

func (r *tradeInRepository) countByStatus(ctx context.Context, where string, args []any) (map[domain.TradeInStatus]int64, error) {
	rows, err := r.pool.Query(ctx, statusCountSQL+where+" GROUP BY status", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TradeInStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.TradeInStatus(status)] = n
	}
	return counts, rows.Err()
}
