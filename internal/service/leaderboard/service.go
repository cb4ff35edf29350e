package leaderboard

import (
	"context"
	"errors"
	"strconv"

	"samloc-service/internal/model"
	"samloc-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const scoreKey = "samloc:leaderboard:score"

// Entry is one leaderboard row, hydrated with profile fields from the
// database.
type Entry struct {
	Rank       int    `json:"rank"`
	UserID     int64  `json:"userId"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	Score      int64  `json:"score"`
	GamesWon   int    `json:"gamesWon"`
	GamesTotal int    `json:"gamesTotal"`
}

// Service keeps the running score ranking in a Redis sorted set. With no
// Redis client wired in (tests, single-node dev) it degrades to a no-op
// recorder and an empty board.
type Service struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

// Record adds one game's score delta to a player's ranking entry.
func (s *Service) Record(ctx context.Context, userID int64, delta int64) {
	if s.rdb == nil {
		return
	}
	member := strconv.FormatInt(userID, 10)
	if err := s.rdb.ZIncrBy(ctx, scoreKey, float64(delta), member).Err(); err != nil {
		logger.Log.Warn("leaderboard record failed", zap.Int64("userID", userID), zap.Error(err))
	}
}

// Top returns the highest-scored players, best first.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if s.rdb == nil {
		return []Entry{}, nil
	}

	rows, err := s.rdb.ZRevRangeWithScores(ctx, scoreKey, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Entry{}, nil
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		member, _ := row.Member.(string)
		userID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}

		entry := Entry{
			Rank:   i + 1,
			UserID: userID,
			Score:  int64(row.Score),
		}

		var user model.User
		if err := s.db.WithContext(ctx).First(&user, userID).Error; err == nil {
			entry.Name = user.Name
			entry.Avatar = user.Avatar
			entry.GamesWon = user.GamesWon
			entry.GamesTotal = user.GamesPlayed
		}

		entries = append(entries, entry)
	}
	return entries, nil
}
