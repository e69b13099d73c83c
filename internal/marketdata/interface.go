// Package marketdata provides access to historical equity bars and ticker
// reference data from the Polygon REST API.
package marketdata

import (
	"context"
	"time"

	"github.com/yourusername/gap-scanner/internal/models"
)

// BarSource supplies daily grouped aggregates, 1-minute intraday bars and
// reference details. Implementations must be safe for concurrent use by
// independent requests; the process shares one read-only client handle.
type BarSource interface {
	// GroupedDaily returns one daily bar per ticker for the whole market
	// on the given date.
	GroupedDaily(ctx context.Context, date time.Time) ([]models.DailyBar, error)

	// Aggregates returns the chronological 1-minute bars for a ticker on
	// the given date. Minutes with no trades are absent.
	Aggregates(ctx context.Context, ticker string, date time.Time) ([]models.IntradayBar, error)

	// TickerDetails returns reference details (shares float, market cap)
	// for a ticker as of the given date.
	TickerDetails(ctx context.Context, ticker string, date time.Time) (models.ReferenceDetails, error)
}
