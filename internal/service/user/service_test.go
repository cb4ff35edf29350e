package user_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"samloc-service/internal/model"
	"samloc-service/internal/service/user"
	appErr "samloc-service/pkg/errors"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.BillingLog{}, &model.GameRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func TestGetProfile(t *testing.T) {
	db := setupDB(t)
	svc := user.NewService(db)

	if err := db.Create(&model.User{ID: 1, Name: "An"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	u, err := svc.GetProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if u.Name != "An" {
		t.Fatalf("got %q", u.Name)
	}

	if _, err := svc.GetProfile(context.Background(), 99); !errors.Is(err, appErr.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	db := setupDB(t)
	svc := user.NewService(db)
	if err := db.Create(&model.User{ID: 1, Name: "An", Avatar: "a1"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	u, err := svc.UpdateProfile(context.Background(), 1, user.UpdateProfileRequest{
		Name: strPtr("  Binh  "),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Name != "Binh" || u.Avatar != "a1" {
		t.Fatalf("partial update wrong: %+v", u)
	}

	if _, err := svc.UpdateProfile(context.Background(), 1, user.UpdateProfileRequest{
		Name: strPtr("   "),
	}); !errors.Is(err, appErr.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	u, err = svc.UpdateProfile(context.Background(), 1, user.UpdateProfileRequest{
		Avatar: strPtr("a2"),
	})
	if err != nil {
		t.Fatalf("avatar update: %v", err)
	}
	if u.Avatar != "a2" || u.Name != "Binh" {
		t.Fatalf("avatar-only update wrong: %+v", u)
	}
}

func TestHistory(t *testing.T) {
	db := setupDB(t)
	svc := user.NewService(db)

	for i := 1; i <= 3; i++ {
		record := model.GameRecord{RoomID: fmt.Sprintf("room-%d", i), WinnerID: 1}
		if err := db.Create(&record).Error; err != nil {
			t.Fatalf("seed record: %v", err)
		}
		if err := db.Create(&model.BillingLog{UserID: 1, Type: "win", GameID: &record.ID}).Error; err != nil {
			t.Fatalf("seed log: %v", err)
		}
	}
	// A log with no game reference never surfaces in history.
	if err := db.Create(&model.BillingLog{UserID: 1, Type: "lose"}).Error; err != nil {
		t.Fatalf("seed log: %v", err)
	}

	records, err := svc.History(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RoomID != "room-3" {
		t.Fatalf("expected newest first, got %q", records[0].RoomID)
	}

	records, err = svc.History(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records for other user, got %d", len(records))
	}
}
