package wallet_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"samloc-service/internal/config"
	"samloc-service/internal/model"
	"samloc-service/internal/service/wallet"
)

func TestMain(m *testing.M) {
	config.GlobalConfig = &config.Config{Game: config.DefaultGameConfig()}
	os.Exit(m.Run())
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Wallet{}, &model.BillingLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestGetWallet(t *testing.T) {
	db := setupDB(t)
	svc := wallet.NewService(db)

	if err := db.Create(&model.Wallet{UserID: 1, Balance: 4200}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	w, err := svc.GetWallet(context.Background(), 1)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.Balance != 4200 {
		t.Fatalf("got %d", w.Balance)
	}

	// Unfunded players read as a fresh wallet at the starting stack.
	w, err = svc.GetWallet(context.Background(), 2)
	if err != nil {
		t.Fatalf("get unfunded wallet: %v", err)
	}
	if w.UserID != 2 || w.Balance != 5000 {
		t.Fatalf("unfunded default wrong: %+v", w)
	}
}

func TestLedger(t *testing.T) {
	db := setupDB(t)
	svc := wallet.NewService(db)

	for i := 0; i < 3; i++ {
		if err := db.Create(&model.BillingLog{UserID: 1, Type: "win", Delta: int64(i)}).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := db.Create(&model.BillingLog{UserID: 2, Type: "lose"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	logs, err := svc.Ledger(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(logs))
	}
	if logs[0].Delta != 2 {
		t.Fatalf("expected newest first, got delta %d", logs[0].Delta)
	}
	for _, l := range logs {
		if l.UserID != 1 {
			t.Fatalf("foreign entry leaked: %+v", l)
		}
	}
}
