package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

// GameConfig is the tunable rule surface consumed by the game engine.
type GameConfig struct {
	StartingCoins     int64            `mapstructure:"startingCoins"`
	TurnSeconds       int              `mapstructure:"turnSeconds"`
	DeclareSamSeconds int              `mapstructure:"declareSamSeconds"`
	MinPlayers        int              `mapstructure:"minPlayers"`
	MaxPlayers        int              `mapstructure:"maxPlayers"`
	CardsPerPlayer    int              `mapstructure:"cardsPerPlayer"`
	BotsEnabled       bool             `mapstructure:"botsEnabled"`
	Money             MoneyConfig      `mapstructure:"money"`
	Multipliers       MultiplierConfig `mapstructure:"multipliers"`
}

type MoneyConfig struct {
	Enabled    bool  `mapstructure:"enabled"`
	MinBalance int64 `mapstructure:"minBalance"`
}

type MultiplierConfig struct {
	Cong    float64 `mapstructure:"cong"`
	Thoi2   float64 `mapstructure:"thoi2"`
	SamWin  float64 `mapstructure:"samWin"`
	SamLose float64 `mapstructure:"samLose"`
	AutoWin float64 `mapstructure:"autoWin"`
}

// DefaultGameConfig mirrors the shipped config.yaml so services stay usable
// in tests without a config file.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		StartingCoins:     5000,
		TurnSeconds:       20,
		DeclareSamSeconds: 10,
		MinPlayers:        2,
		MaxPlayers:        4,
		CardsPerPlayer:    10,
		BotsEnabled:       true,
		Money: MoneyConfig{
			Enabled:    true,
			MinBalance: 0,
		},
		Multipliers: MultiplierConfig{
			Cong:    2,
			Thoi2:   1.5,
			SamWin:  2,
			SamLose: 2,
			AutoWin: 3,
		},
	}
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	cfg := Config{Game: DefaultGameConfig()}
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
