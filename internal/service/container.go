package service

import (
	"context"
	"time"

	"samloc-service/internal/config"
	"samloc-service/internal/service/auth"
	"samloc-service/internal/service/game"
	"samloc-service/internal/service/leaderboard"
	"samloc-service/internal/service/room"
	"samloc-service/internal/service/user"
	"samloc-service/internal/service/wallet"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const roomSweepInterval = 10 * time.Minute

type Container struct {
	Auth        *auth.Service
	User        *user.Service
	Wallet      *wallet.Service
	Room        *room.Service
	Game        *game.Service
	Leaderboard *leaderboard.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	gameCfg := config.GlobalConfig.Game

	roomSvc := room.NewService(gameCfg, rdb)
	boardSvc := leaderboard.NewService(db, rdb)
	gameSvc := game.NewService(db, gameCfg, roomSvc, boardSvc)
	roomSvc.SetOnClose(gameSvc.DropRuntime)

	return &Container{
		Auth:        auth.NewService(db),
		User:        user.NewService(db),
		Wallet:      wallet.NewService(db),
		Room:        roomSvc,
		Game:        gameSvc,
		Leaderboard: boardSvc,
	}
}

// Start launches background maintenance; it returns when ctx is canceled.
func (c *Container) Start(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(roomSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Room.Sweep(2 * roomSweepInterval)
			}
		}
	}()
	return nil
}
