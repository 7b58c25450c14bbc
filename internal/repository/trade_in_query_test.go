package repository

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tradein-service/internal/domain"
)

func TestTradeInFilter_Normalize(t *testing.T) {
	f := TradeInFilter{SortBy: "password", SortOrder: "ASC", Limit: 1000}.Normalize()
	require.Equal(t, DefaultSortBy, f.SortBy)
	require.Equal(t, SortOrderAsc, f.SortOrder)
	require.Equal(t, MaxLimit, f.Limit)
	require.Equal(t, DefaultPage, f.Page)

	f = TradeInFilter{SortOrder: "sideways"}.Normalize()
	require.Equal(t, SortOrderDesc, f.SortOrder)
	require.Equal(t, DefaultLimit, f.Limit)
}

func TestTradeInFilter_WhereClause(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	minPrice := 100.0
	where, args := TradeInFilter{
		UserID:      "u1",
		Status:      domain.StatusPending,
		Brand:       "Apple",
		CreatedFrom: &from,
		MinPrice:    &minPrice,
		Search:      "50%_off",
	}.whereClause()

	require.Equal(t, " WHERE user_id = $1 AND status = $2 AND brand = $3 AND created_at >= $4"+
		" AND estimated_price >= $5 AND (model ILIKE $6 OR brand ILIKE $6 OR device_type ILIKE $6)", where)
	require.Equal(t, []any{"u1", "pending", "Apple", from, 100.0, `%50\%\_off%`}, args)

	where, args = TradeInFilter{}.whereClause()
	require.Empty(t, where)
	require.Empty(t, args)
}

func TestTradeInRepository_List_EmptyHasNilStats(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`(?s)SELECT id, user_id.*FROM trade_in_requests WHERE user_id = \$1 ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("u1", 10, 0).
		WillReturnRows(pgxmock.NewRows(requestCols))
	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\),.*FROM trade_in_requests WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum", "avg", "final", "types", "brands"}).
			AddRow(int64(0), 0.0, 0.0, 0.0, []string{}, []string{}))
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM trade_in_requests WHERE user_id = \$1 GROUP BY status`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}))

	page, err := r.List(context.Background(), TradeInFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Nil(t, page.Stats)
	require.NotNil(t, page.Items)
	require.Empty(t, page.Items)
	require.Equal(t, Pagination{Total: 0, Pages: 0, Page: 1, Limit: 10}, page.Pagination)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTradeInRepository_List_WithStats(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)
	req := sampleRequest()

	mock.ExpectQuery(`(?s)SELECT id, user_id.*WHERE user_id = \$1 AND device_type = \$2 ORDER BY estimated_price ASC, id ASC LIMIT \$3 OFFSET \$4`).
		WithArgs("u1", "smartphone", 2, 2).
		WillReturnRows(addRequestRow(pgxmock.NewRows(requestCols), req, nil))
	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\),.*WHERE user_id = \$1 AND device_type = \$2`).
		WithArgs("u1", "smartphone").
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum", "avg", "final", "types", "brands"}).
			AddRow(int64(3), 900.0, 300.0, 250.0, []string{"smartphone"}, []string{"Apple", "Samsung"}))
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM trade_in_requests WHERE user_id = \$1 AND device_type = \$2 GROUP BY status`).
		WithArgs("u1", "smartphone").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("pending", int64(2)).
			AddRow("completed", int64(1)))

	page, err := r.List(context.Background(), TradeInFilter{
		UserID:     "u1",
		DeviceType: domain.DeviceSmartphone,
		SortBy:     "estimatedPrice",
		SortOrder:  "asc",
		Page:       2,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Nil(t, page.Items[0].History)
	require.Equal(t, Pagination{Total: 3, Pages: 2, Page: 2, Limit: 2}, page.Pagination)
	require.NotNil(t, page.Stats)
	require.Equal(t, 300.0, page.Stats.AvgEstimatedValue)
	require.Equal(t, int64(2), page.Stats.StatusCounts[domain.StatusPending])
	require.ElementsMatch(t, []string{"Apple", "Samsung"}, page.Stats.Brands)
	require.NoError(t, mock.ExpectationsWereMet())
}
