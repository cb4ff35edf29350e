package game

import "samloc-service/internal/config"

// Rules is the value-only configuration surface the engine consumes. The
// engine never touches viper or global config directly.
type Rules struct {
	Bet            int64
	CardsPerPlayer int
	MoneyEnabled   bool
	MinBalance     int64
	Multipliers    Multipliers
}

type Multipliers struct {
	Cong    float64
	Thoi2   float64
	SamWin  float64
	SamLose float64
	AutoWin float64
}

// RulesFromConfig binds a room bet amount to the configured game settings.
func RulesFromConfig(cfg config.GameConfig, bet int64) Rules {
	return Rules{
		Bet:            bet,
		CardsPerPlayer: cfg.CardsPerPlayer,
		MoneyEnabled:   cfg.Money.Enabled,
		MinBalance:     cfg.Money.MinBalance,
		Multipliers: Multipliers{
			Cong:    cfg.Multipliers.Cong,
			Thoi2:   cfg.Multipliers.Thoi2,
			SamWin:  cfg.Multipliers.SamWin,
			SamLose: cfg.Multipliers.SamLose,
			AutoWin: cfg.Multipliers.AutoWin,
		},
	}
}
