package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

const analyticsIncrementRoomsCreatedCount = `INSERT INTO game_server_analytics (server_ip, rooms_created)
VALUES ($1, 1)
ON CONFLICT (server_ip)
DO UPDATE SET rooms_created = game_server_analytics.rooms_created + 1, updated_at = NOW()`

func (q *Queries) AnalyticsIncrementRoomsCreatedCount(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, analyticsIncrementRoomsCreatedCount, serverIp)
	return err
}

const analyticsIncrementGamesFinishedCount = `INSERT INTO game_server_analytics (server_ip, games_finished)
VALUES ($1, 1)
ON CONFLICT (server_ip)
DO UPDATE SET games_finished = game_server_analytics.games_finished + 1, updated_at = NOW()`

func (q *Queries) AnalyticsIncrementGamesFinishedCount(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, analyticsIncrementGamesFinishedCount, serverIp)
	return err
}

const analyticsGetRoomsCreatedCount = `SELECT rooms_created FROM game_server_analytics WHERE server_ip = $1`

func (q *Queries) AnalyticsGetRoomsCreatedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	row := q.db.QueryRowContext(ctx, analyticsGetRoomsCreatedCount, serverIp)
	var roomsCreated int64
	err := row.Scan(&roomsCreated)
	return roomsCreated, err
}

const analyticsGetGamesFinishedCount = `SELECT games_finished FROM game_server_analytics WHERE server_ip = $1`

func (q *Queries) AnalyticsGetGamesFinishedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	row := q.db.QueryRowContext(ctx, analyticsGetGamesFinishedCount, serverIp)
	var gamesFinished int64
	err := row.Scan(&gamesFinished)
	return gamesFinished, err
}
