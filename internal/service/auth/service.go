package auth

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"samloc-service/internal/config"
	"samloc-service/internal/model"
	pkgAuth "samloc-service/pkg/auth"
	appErr "samloc-service/pkg/errors"
	"samloc-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNameLength = 24

type Service struct {
	db *gorm.DB
}

type LoginResult struct {
	Token    string     `json:"token"`
	ExpireAt time.Time  `json:"expireAt"`
	User     model.User `json:"user"`
	Balance  int64      `json:"balance"`
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GuestLogin creates a guest identity under the given display name and
// funds its wallet with the starting stack. No password, no verification;
// the token is the identity.
func (s *Service) GuestLogin(ctx context.Context, name, avatar string) (*LoginResult, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, appErr.ErrInvalidName
	}

	starting := config.GlobalConfig.Game.StartingCoins
	user := model.User{
		Name:   name,
		Avatar: avatar,
		Status: "normal",
	}
	wallet := model.Wallet{Balance: starting}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		wallet.UserID = user.ID
		wallet.UpdatedAt = time.Now()
		return tx.Create(&wallet).Error
	})
	if err != nil {
		return nil, err
	}

	token, err := pkgAuth.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("guest login",
		zap.Int64("userID", user.ID),
		zap.String("name", user.Name),
	)

	expireAt := time.Now().Add(time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour)
	return &LoginResult{
		Token:    token,
		ExpireAt: expireAt,
		User:     user,
		Balance:  wallet.Balance,
	}, nil
}
