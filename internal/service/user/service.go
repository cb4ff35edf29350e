package user

import (
	"context"
	"strings"
	"unicode/utf8"

	"samloc-service/internal/model"
	appErr "samloc-service/pkg/errors"

	"gorm.io/gorm"
)

const maxNameLength = 24

type Service struct {
	db *gorm.DB
}

type UpdateProfileRequest struct {
	Name   *string
	Avatar *string
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*model.User, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || utf8.RuneCountInString(name) > maxNameLength {
			return nil, appErr.ErrInvalidName
		}
		updates["name"] = name
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetProfile(ctx, userID)
}

// History returns the player's most recent settled games, newest first.
// The billing ledger is the per-player index into game records.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]model.GameRecord, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var logs []model.BillingLog
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND game_id IS NOT NULL", userID).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	records := make([]model.GameRecord, 0, len(logs))
	for _, log := range logs {
		var record model.GameRecord
		if err := s.db.WithContext(ctx).First(&record, *log.GameID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
