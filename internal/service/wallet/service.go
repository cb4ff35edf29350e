package wallet

import (
	"context"

	"samloc-service/internal/config"
	"samloc-service/internal/model"

	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetWallet returns the player's coin wallet. A player who has never been
// settled reads as an unfunded wallet at the starting stack.
func (s *Service) GetWallet(ctx context.Context, userID int64) (*model.Wallet, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &model.Wallet{
				UserID:  userID,
				Balance: config.GlobalConfig.Game.StartingCoins,
			}, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// Ledger returns the player's recent billing entries, newest first.
func (s *Service) Ledger(ctx context.Context, userID int64, limit int) ([]model.BillingLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	logs := make([]model.BillingLog, 0, limit)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
