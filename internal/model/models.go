package model

import (
	"time"

	"gorm.io/datatypes"
)

// Player accounts are guest identities; there is no password login.
type User struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:64;not null"`
	Avatar      string
	TotalScore  int64 `gorm:"default:0"`
	GamesPlayed int   `gorm:"default:0"`
	GamesWon    int   `gorm:"default:0"`
	Status      string `gorm:"default:normal;not null"` // normal/banned
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Wallet struct {
	UserID       int64 `gorm:"primaryKey"`
	Balance      int64
	TotalWin     int64
	TotalLoss    int64
	TotalPenalty int64
	UpdatedAt    time.Time
}

type BillingLog struct {
	ID           int64 `gorm:"primaryKey;autoIncrement"`
	UserID       int64
	Type         string // win/lose/sam_win/sam_lose/auto_win/penalty_thoi2/penalty_thoi_quad/penalty_cong
	Delta        int64
	BalanceAfter int64
	GameID       *int64
	MetaJSON     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time
}

// GameRecord stores the outcome of one finished game for history queries.
type GameRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	RoomID      string `gorm:"size:64;index"`
	WinnerID    int64
	Outcome     string // normal/sam_win/sam_fail/auto_win
	SamDeclarer *int64
	BetAmount   int64
	ResultJSON  datatypes.JSON `gorm:"type:jsonb"`
	EndedAt     time.Time
	CreatedAt   time.Time
}
