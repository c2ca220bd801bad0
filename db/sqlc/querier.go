package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

type Querier interface {
	AnalyticsIncrementRoomsCreatedCount(ctx context.Context, serverIp pqtype.Inet) error
	AnalyticsIncrementGamesFinishedCount(ctx context.Context, serverIp pqtype.Inet) error
	AnalyticsGetRoomsCreatedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error)
	AnalyticsGetGamesFinishedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error)
}

var _ Querier = (*Queries)(nil)
