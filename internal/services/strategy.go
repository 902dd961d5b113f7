package services

import (
  "fmt"
  "os"
  "gopkg.in/yaml.v3"
  "github.com/stakequest/stakequest-backend/internal/types"
)

const (
  // Default pool APY in basis points (500 = 5%).
  DefaultAPYBp = 500
)

// StrategyValuator computes the current value of an invested amount under one
// yield strategy. All four strategies currently share the same simplified
// accrual rule; the per-tag split is the extension point for real protocol
// integrations.
type StrategyValuator interface {
  Strategy() types.YieldStrategy
  Value(amountInvested int64, apyBp int, daysElapsed int64) int64
}

// dailyAccrualValue is the shared valuation rule: basis points per day are
// derived by integer division, truncating fractional rates.
func dailyAccrualValue(amountInvested int64, apyBp int, daysElapsed int64) int64 {
  dailyRateBp := int64(apyBp) * 100 / 36500
  yield := amountInvested * dailyRateBp * daysElapsed / 10000
  return amountInvested + yield
}

type liquidityPoolValuator struct{}

func (liquidityPoolValuator) Strategy() types.YieldStrategy { return types.StrategyLiquidityPool }
func (liquidityPoolValuator) Value(amountInvested int64, apyBp int, daysElapsed int64) int64 {
  return dailyAccrualValue(amountInvested, apyBp, daysElapsed)
}

type lendingProtocolValuator struct{}

func (lendingProtocolValuator) Strategy() types.YieldStrategy { return types.StrategyLendingProtocol }
func (lendingProtocolValuator) Value(amountInvested int64, apyBp int, daysElapsed int64) int64 {
  return dailyAccrualValue(amountInvested, apyBp, daysElapsed)
}

type stableSwapValuator struct{}

func (stableSwapValuator) Strategy() types.YieldStrategy { return types.StrategyStableSwap }
func (stableSwapValuator) Value(amountInvested int64, apyBp int, daysElapsed int64) int64 {
  return dailyAccrualValue(amountInvested, apyBp, daysElapsed)
}

type pathPaymentValuator struct{}

func (pathPaymentValuator) Strategy() types.YieldStrategy { return types.StrategyPathPayment }
func (pathPaymentValuator) Value(amountInvested int64, apyBp int, daysElapsed int64) int64 {
  return dailyAccrualValue(amountInvested, apyBp, daysElapsed)
}

func defaultValuators() map[types.YieldStrategy]StrategyValuator {
  valuators := map[types.YieldStrategy]StrategyValuator{}
  for _, v := range []StrategyValuator{
    liquidityPoolValuator{},
    lendingProtocolValuator{},
    stableSwapValuator{},
    pathPaymentValuator{},
  } {
    valuators[v.Strategy()] = v
  }
  return valuators
}

// StrategySelector picks the strategy for a new deposit. The default selector
// always picks liquidity pools; production can substitute a selector that
// compares live protocol rates.
type StrategySelector func(stats *types.YieldPoolStats) types.YieldStrategy

func DefaultStrategySelector(_ *types.YieldPoolStats) types.YieldStrategy {
  return types.StrategyLiquidityPool
}

// StrategyConfig overrides the initial APY and default strategy from a YAML
// file pointed at by STRATEGY_CONFIG_PATH.
type StrategyConfig struct {
  CurrentAPYBp    int    `yaml:"current_apy_bp"`
  DefaultStrategy string `yaml:"default_strategy"`
}

func LoadStrategyConfig(path string) (*StrategyConfig, error) {
  raw, err := os.ReadFile(path)
  if err != nil {
    return nil, fmt.Errorf("read strategy config: %w", err)
  }
  var cfg StrategyConfig
  if err := yaml.Unmarshal(raw, &cfg); err != nil {
    return nil, fmt.Errorf("parse strategy config: %w", err)
  }
  if cfg.CurrentAPYBp <= 0 {
    cfg.CurrentAPYBp = DefaultAPYBp
  }
  if cfg.DefaultStrategy != "" && !types.YieldStrategy(cfg.DefaultStrategy).Valid() {
    return nil, fmt.Errorf("unknown default strategy %q", cfg.DefaultStrategy)
  }
  return &cfg, nil
}

// SelectorFromConfig returns a fixed-strategy selector when the config names
// one, the default selector otherwise.
func SelectorFromConfig(cfg *StrategyConfig) StrategySelector {
  if cfg == nil || cfg.DefaultStrategy == "" {
    return DefaultStrategySelector
  }
  strategy := types.YieldStrategy(cfg.DefaultStrategy)
  return func(_ *types.YieldPoolStats) types.YieldStrategy { return strategy }
}
