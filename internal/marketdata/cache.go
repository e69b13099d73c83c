package marketdata

import (
	"context"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/gap-scanner/internal/models"
)

// CachedBarSource wraps a BarSource with an in-memory cache for reference
// details. Bars themselves are never cached; grouped-daily payloads are
// large and each scan touches a date at most once. Reference details are
// requested once per retained candidate and rarely change intraday.
type CachedBarSource struct {
	BarSource
	refCache *cache.Cache
	logger   *logrus.Logger
}

// NewCachedBarSource creates a caching wrapper around src
func NewCachedBarSource(src BarSource, ttl time.Duration, logger *logrus.Logger) *CachedBarSource {
	return &CachedBarSource{
		BarSource: src,
		refCache:  cache.New(ttl, ttl*2),
		logger:    logger,
	}
}

// TickerDetails retrieves reference details with caching
func (c *CachedBarSource) TickerDetails(ctx context.Context, ticker string, date time.Time) (models.ReferenceDetails, error) {
	key := fmt.Sprintf("%s:%s", ticker, date.Format(dateLayout))

	if cached, found := c.refCache.Get(key); found {
		if details, ok := cached.(models.ReferenceDetails); ok {
			c.logger.WithField("cache_key", key).Debug("Cache hit for ticker details")
			return details, nil
		}
	}

	details, err := c.BarSource.TickerDetails(ctx, ticker, date)
	if err != nil {
		return models.ReferenceDetails{}, err
	}

	c.refCache.Set(key, details, cache.DefaultExpiration)
	return details, nil
}
