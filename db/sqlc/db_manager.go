package sqlc

import (
	"context"
	"time"
)

const (
	QuerierCtxTimeout = time.Second * 10
)

type DbManager struct {
	Analytics *AnalyticsManager
}

// NewDbManager falls back to NoopQuerier when queries is nil so the
// server can run without a database.
func NewDbManager(queries Querier) DbManager {
	if queries == nil {
		queries = NoopQuerier{}
	}
	return DbManager{
		Analytics: NewAnalyticsManager(queries),
	}
}

// QuerierContext bounds one analytics round trip.
func QuerierContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), QuerierCtxTimeout)
}
