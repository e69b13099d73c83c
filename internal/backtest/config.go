package backtest

import (
	"fmt"

	"github.com/yourusername/gap-scanner/internal/config"
	"github.com/yourusername/gap-scanner/internal/models"
)

// StrategyDeathCandle is the only shipped strategy.
const StrategyDeathCandle = "death-candle"

// StopLossMethod selects how the engine derives a trade's stop price from
// its entry candle.
type StopLossMethod string

const (
	// StopLossHighOfCandle places the stop a fixed margin above the death
	// candle's high.
	StopLossHighOfCandle StopLossMethod = "high_of_candle"
)

// CommissionMethod selects how commission is charged against a trade.
type CommissionMethod string

const (
	// CommissionFlatPercentage subtracts a flat percentage from each
	// trade's profit.
	CommissionFlatPercentage CommissionMethod = "flat_percentage"
	// CommissionNone charges nothing.
	CommissionNone CommissionMethod = "none"
)

// EngineConfig extends core config with simulation-specific settings
type EngineConfig struct {
	StrategyName         string
	StopLossMethod       StopLossMethod
	CommissionMethod     CommissionMethod
	CommissionPercentage float64
	OutputPath           string
}

// FromConfig converts app config to engine config
func FromConfig(cfg *config.BacktestConfig) (EngineConfig, error) {
	if cfg == nil {
		return EngineConfig{}, fmt.Errorf("backtest config is required")
	}

	commission := CommissionNone
	if cfg.CommissionEnabled {
		commission = CommissionFlatPercentage
	}

	ec := EngineConfig{
		StrategyName:         cfg.StrategyName,
		StopLossMethod:       StopLossHighOfCandle,
		CommissionMethod:     commission,
		CommissionPercentage: cfg.CommissionPercentage,
		OutputPath:           cfg.OutputPath,
	}

	return ec, ec.Validate()
}

// Validate validates engine config parameters
func (c EngineConfig) Validate() error {
	if c.StrategyName != StrategyDeathCandle {
		return fmt.Errorf("%w: %q", models.ErrUnknownStrategy, c.StrategyName)
	}
	switch c.StopLossMethod {
	case StopLossHighOfCandle:
	default:
		return fmt.Errorf("unknown stop-loss method %q", c.StopLossMethod)
	}
	switch c.CommissionMethod {
	case CommissionNone:
	case CommissionFlatPercentage:
		if c.CommissionPercentage <= 0 {
			return fmt.Errorf("commission percentage must be positive, got %.2f", c.CommissionPercentage)
		}
	default:
		return fmt.Errorf("unknown commission method %q", c.CommissionMethod)
	}
	return nil
}

// commission returns the flat percentage charged per trade.
func (c EngineConfig) commission() float64 {
	if c.CommissionMethod == CommissionFlatPercentage {
		return c.CommissionPercentage
	}
	return 0
}
