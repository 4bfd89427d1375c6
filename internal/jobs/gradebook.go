package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/campus-apps/coursebook/internal/db"
	"github.com/campus-apps/coursebook/internal/metrics"
)

// PingDB keeps the db latency histogram warm between requests.
func PingDB(database *sql.DB) Job {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		t0 := time.Now()
		if err := database.PingContext(ctx); err != nil {
			return err
		}
		metrics.ObserveDBPing(time.Since(t0))
		return nil
	}
}

// RefreshRegradeBacklog keeps the unresolved-requests gauge current so
// instructors can alert on a growing dispute queue.
func RefreshRegradeBacklog(database *sql.DB) Job {
	return func(ctx context.Context) error {
		n, err := db.CountOpenRegrades(ctx, database)
		if err != nil {
			return err
		}
		metrics.RegradeBacklog.Set(float64(n))
		return nil
	}
}
