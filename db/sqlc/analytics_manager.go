package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

type AnalyticsManager struct {
	queries Querier
}

func NewAnalyticsManager(queries Querier) *AnalyticsManager {
	return &AnalyticsManager{queries: queries}
}

func (a *AnalyticsManager) IncrementRoomsCreatedCount(ctx context.Context, serverIpNet pqtype.Inet) error {
	return a.queries.AnalyticsIncrementRoomsCreatedCount(ctx, serverIpNet)
}

func (a *AnalyticsManager) IncrementGamesFinishedCount(ctx context.Context, serverIpNet pqtype.Inet) error {
	return a.queries.AnalyticsIncrementGamesFinishedCount(ctx, serverIpNet)
}

func (a *AnalyticsManager) GetRoomsCreatedCount(ctx context.Context, serverIpNet pqtype.Inet) (int64, error) {
	return a.queries.AnalyticsGetRoomsCreatedCount(ctx, serverIpNet)
}

func (a *AnalyticsManager) GetGamesFinishedCount(ctx context.Context, serverIpNet pqtype.Inet) (int64, error) {
	return a.queries.AnalyticsGetGamesFinishedCount(ctx, serverIpNet)
}

// NoopQuerier is used when the server runs without a database.
type NoopQuerier struct{}

var _ Querier = NoopQuerier{}

func (NoopQuerier) AnalyticsIncrementRoomsCreatedCount(context.Context, pqtype.Inet) error {
	return nil
}

func (NoopQuerier) AnalyticsIncrementGamesFinishedCount(context.Context, pqtype.Inet) error {
	return nil
}

func (NoopQuerier) AnalyticsGetRoomsCreatedCount(context.Context, pqtype.Inet) (int64, error) {
	return 0, nil
}

func (NoopQuerier) AnalyticsGetGamesFinishedCount(context.Context, pqtype.Inet) (int64, error) {
	return 0, nil
}
