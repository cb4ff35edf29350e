package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"samloc-service/internal/config"
	"samloc-service/internal/model"
	"samloc-service/internal/service/leaderboard"
	appErr "samloc-service/pkg/errors"
	"samloc-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoomInfo is the roster snapshot a runtime is built from.
type RoomInfo struct {
	ID     string
	HostID int64
	Bet    int64
	Seats  []Seat
}

// RoomProvider is the room registry surface the game service depends on.
// The room service implements it; keeping the interface here avoids a
// package cycle.
type RoomProvider interface {
	RoomInfo(roomID string) (*RoomInfo, error)
	BeginGame(roomID string) error
	FinishGame(roomID string) error
}

// Service manages per-room runtimes and owns post-game persistence.
type Service struct {
	db       *gorm.DB
	cfg      config.GameConfig
	rooms    RoomProvider
	board    *leaderboard.Service
	runtimes sync.Map
}

func NewService(db *gorm.DB, cfg config.GameConfig, rooms RoomProvider, board *leaderboard.Service) *Service {
	return &Service{db: db, cfg: cfg, rooms: rooms, board: board}
}

// GetRuntime returns the live runtime for a room, building one from the
// room roster on first use. Human seats start with their wallet balance;
// bot seats get the configured starting stack.
func (s *Service) GetRuntime(ctx context.Context, roomID string) (*RoomRuntime, error) {
	if v, ok := s.runtimes.Load(roomID); ok {
		return v.(*RoomRuntime), nil
	}

	seats, info, err := s.loadSeats(ctx, roomID)
	if err != nil {
		return nil, err
	}

	rt := newRoomRuntime(info.ID, info.HostID, seats, s.cfg, info.Bet, s.handleRuntimeFinish)
	actual, _ := s.runtimes.LoadOrStore(roomID, rt)
	return actual.(*RoomRuntime), nil
}

func (s *Service) loadSeats(ctx context.Context, roomID string) ([]Seat, *RoomInfo, error) {
	info, err := s.rooms.RoomInfo(roomID)
	if err != nil {
		return nil, nil, err
	}

	seats := make([]Seat, 0, len(info.Seats))
	for _, seat := range info.Seats {
		if !seat.IsBot {
			if err := s.fillSeatFromDB(ctx, &seat); err != nil {
				return nil, nil, err
			}
		} else {
			seat.Coins = s.cfg.StartingCoins
		}
		seats = append(seats, seat)
	}
	return seats, info, nil
}

func (s *Service) fillSeatFromDB(ctx context.Context, seat *Seat) error {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, seat.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.ErrUserNotFound
		}
		return err
	}
	seat.Name = user.Name
	seat.TotalScore = user.TotalScore

	var wallet model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", seat.ID).First(&wallet).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		wallet = model.Wallet{UserID: seat.ID, Balance: s.cfg.StartingCoins}
	}
	seat.Coins = wallet.Balance
	return nil
}

// HandleAction routes a player intent into the room's runtime. Starting a
// game additionally flips the room registry into its in-game state.
func (s *Service) HandleAction(ctx context.Context, roomID string, userID int64, action string, data json.RawMessage) error {
	rt, err := s.GetRuntime(ctx, roomID)
	if err != nil {
		return err
	}

	// Starting the game locks in whoever is seated right now, so the
	// engine roster is rebuilt from the registry first.
	if action == "start" {
		seats, info, err := s.loadSeats(ctx, roomID)
		if err != nil {
			return err
		}
		if err := rt.ResetSeats(info.HostID, seats, info.Bet); err != nil {
			return err
		}
	}

	if err := rt.HandleAction(userID, action, data); err != nil {
		return err
	}

	if action == "start" {
		if err := s.rooms.BeginGame(roomID); err != nil {
			logger.Log.Warn("room begin-game mark failed", zap.String("roomID", roomID), zap.Error(err))
		}
	}
	return nil
}

// DropRuntime forgets a room's runtime, e.g. when the room is closed.
func (s *Service) DropRuntime(roomID string) {
	s.runtimes.Delete(roomID)
}

func (s *Service) handleRuntimeFinish(rt *RoomRuntime, end *EndResult) {
	ctx := context.Background()

	if err := s.persistResult(ctx, rt, end); err != nil {
		logger.Log.Error("settlement persist failed",
			zap.String("roomID", rt.roomID),
			zap.Error(err),
		)
	}

	if err := s.rooms.FinishGame(rt.roomID); err != nil {
		logger.Log.Warn("room finish-game mark failed", zap.String("roomID", rt.roomID), zap.Error(err))
	}

	s.runtimes.Delete(rt.roomID)
}
