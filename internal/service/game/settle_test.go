package game

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"samloc-service/internal/config"
	"samloc-service/internal/model"
)

func setupSettleDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Wallet{}, &model.BillingLog{}, &model.GameRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id int64, name string, balance int64) {
	t.Helper()
	if err := db.Create(&model.User{ID: id, Name: name}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if balance >= 0 {
		if err := db.Create(&model.Wallet{UserID: id, Balance: balance}).Error; err != nil {
			t.Fatalf("seed wallet: %v", err)
		}
	}
}

// finishedRuntime builds a runtime whose game just ended: player 1 went out,
// player 2 and one bot hold cards.
func finishedRuntime(t *testing.T, cfg config.GameConfig, bet int64) (*RoomRuntime, *EndResult) {
	t.Helper()
	seats := []Seat{
		{ID: 1, Name: "An", Coins: 5000},
		{ID: 2, Name: "Binh", Coins: 5000},
		{ID: -1, Name: "Bot Cao Thủ", IsBot: true, Coins: 5000},
	}
	rt := newRoomRuntime("room-settle", 1, seats, cfg, bet, nil)

	e := rt.engine
	e.state = StatePlaying
	e.players[1].Hand = nil
	e.players[1].CardsPlayed = 10
	e.players[2].Hand = handOf([2]string{"7", "spades"}, [2]string{"K", "diamonds"})
	e.players[2].CardsPlayed = 8
	e.players[-1].Hand = handOf([2]string{"4", "clubs"}, [2]string{"8", "clubs"}, [2]string{"J", "clubs"})
	e.players[-1].CardsPlayed = 7

	return rt, e.endGame(1)
}

func TestPersistResultWritesRecordWalletsAndLogs(t *testing.T) {
	db := setupSettleDB(t)
	cfg := config.DefaultGameConfig()
	seedUser(t, db, 1, "An", 5000)
	seedUser(t, db, 2, "Binh", 5000)

	rt, end := finishedRuntime(t, cfg, 100)
	svc := NewService(db, cfg, nil, nil)

	if err := svc.persistResult(context.Background(), rt, end); err != nil {
		t.Fatalf("persist: %v", err)
	}

	var record model.GameRecord
	if err := db.Where("room_id = ?", "room-settle").First(&record).Error; err != nil {
		t.Fatalf("game record: %v", err)
	}
	if record.WinnerID != 1 || record.Outcome != "normal" || record.BetAmount != 100 {
		t.Fatalf("record fields wrong: %+v", record)
	}
	if !strings.Contains(string(record.ResultJSON), "Bot Cao Thủ") {
		t.Fatalf("bot seat missing from result json")
	}

	var w1, w2 model.Wallet
	if err := db.First(&w1, "user_id = ?", 1).Error; err != nil {
		t.Fatalf("wallet 1: %v", err)
	}
	if err := db.First(&w2, "user_id = ?", 2).Error; err != nil {
		t.Fatalf("wallet 2: %v", err)
	}
	if w1.Balance <= 5000 || w1.TotalWin == 0 {
		t.Fatalf("winner wallet not credited: %+v", w1)
	}
	if w2.Balance >= 5000 || w2.TotalLoss == 0 {
		t.Fatalf("loser wallet not debited: %+v", w2)
	}

	var botWallets int64
	db.Model(&model.Wallet{}).Where("user_id < 0").Count(&botWallets)
	if botWallets != 0 {
		t.Fatalf("bots must never get wallets")
	}

	var logs []model.BillingLog
	if err := db.Order("user_id").Find(&logs).Error; err != nil {
		t.Fatalf("billing logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 billing logs, got %d", len(logs))
	}
	for _, l := range logs {
		if l.GameID == nil || *l.GameID != record.ID {
			t.Fatalf("billing log not linked to game record: %+v", l)
		}
	}
	if logs[0].UserID != 1 || logs[0].Type != "win" {
		t.Fatalf("winner log wrong: %+v", logs[0])
	}
	if logs[1].UserID != 2 || logs[1].Type != "lose" {
		t.Fatalf("loser log wrong: %+v", logs[1])
	}

	var u1 model.User
	if err := db.First(&u1, 1).Error; err != nil {
		t.Fatalf("user 1: %v", err)
	}
	if u1.GamesPlayed != 1 || u1.GamesWon != 1 {
		t.Fatalf("winner stats wrong: %+v", u1)
	}
	var u2 model.User
	if err := db.First(&u2, 2).Error; err != nil {
		t.Fatalf("user 2: %v", err)
	}
	if u2.GamesPlayed != 1 || u2.GamesWon != 0 {
		t.Fatalf("loser stats wrong: %+v", u2)
	}
}

func TestPersistResultSamFailBillingType(t *testing.T) {
	db := setupSettleDB(t)
	cfg := config.DefaultGameConfig()
	seedUser(t, db, 1, "An", 5000)
	seedUser(t, db, 2, "Binh", 5000)

	seats := []Seat{
		{ID: 1, Name: "An", Coins: 5000},
		{ID: 2, Name: "Binh", Coins: 5000},
	}
	rt := newRoomRuntime("room-samfail", 1, seats, cfg, 100, nil)
	e := rt.engine
	e.state = StatePlaying
	e.samDeclarer = 2
	e.players[1].Hand = nil
	e.players[1].CardsPlayed = 10
	e.players[2].Hand = handOf([2]string{"7", "spades"})
	e.players[2].CardsPlayed = 9
	end := e.endGame(1)

	svc := NewService(db, cfg, nil, nil)
	if err := svc.persistResult(context.Background(), rt, end); err != nil {
		t.Fatalf("persist: %v", err)
	}

	var declarerLog model.BillingLog
	if err := db.First(&declarerLog, "user_id = ?", 2).Error; err != nil {
		t.Fatalf("declarer log: %v", err)
	}
	if declarerLog.Type != "sam_lose" {
		t.Fatalf("expected sam_lose, got %s", declarerLog.Type)
	}

	var record model.GameRecord
	if err := db.Where("room_id = ?", "room-samfail").First(&record).Error; err != nil {
		t.Fatalf("game record: %v", err)
	}
	if record.SamDeclarer == nil || *record.SamDeclarer != 2 {
		t.Fatalf("sam declarer not recorded")
	}
}

func TestPersistResultMoneyDisabledSkipsWallets(t *testing.T) {
	db := setupSettleDB(t)
	cfg := config.DefaultGameConfig()
	cfg.Money.Enabled = false
	seedUser(t, db, 1, "An", 5000)
	seedUser(t, db, 2, "Binh", 5000)

	rt, end := finishedRuntime(t, cfg, 100)
	svc := NewService(db, cfg, nil, nil)
	if err := svc.persistResult(context.Background(), rt, end); err != nil {
		t.Fatalf("persist: %v", err)
	}

	var w1 model.Wallet
	if err := db.First(&w1, "user_id = ?", 1).Error; err != nil {
		t.Fatalf("wallet 1: %v", err)
	}
	if w1.Balance != 5000 {
		t.Fatalf("wallet must be untouched with money disabled, got %d", w1.Balance)
	}

	var logCount int64
	db.Model(&model.BillingLog{}).Count(&logCount)
	if logCount != 0 {
		t.Fatalf("no billing logs expected, got %d", logCount)
	}

	var u1 model.User
	if err := db.First(&u1, 1).Error; err != nil {
		t.Fatalf("user 1: %v", err)
	}
	if u1.GamesPlayed != 1 {
		t.Fatalf("stats must still update: %+v", u1)
	}
}

func TestPersistResultFundsUnseenWallet(t *testing.T) {
	db := setupSettleDB(t)
	cfg := config.DefaultGameConfig()
	seedUser(t, db, 1, "An", 5000)
	// User 2 has an account but was never funded.
	seedUser(t, db, 2, "Binh", -1)

	rt, end := finishedRuntime(t, cfg, 100)
	svc := NewService(db, cfg, nil, nil)
	if err := svc.persistResult(context.Background(), rt, end); err != nil {
		t.Fatalf("persist: %v", err)
	}

	var coin CoinResult
	for _, c := range end.Coins {
		if c.PlayerID == 2 {
			coin = c
		}
	}

	var w2 model.Wallet
	if err := db.First(&w2, "user_id = ?", 2).Error; err != nil {
		t.Fatalf("wallet 2 must be created: %v", err)
	}
	if w2.Balance != cfg.StartingCoins+coin.Change {
		t.Fatalf("expected %d, got %d", cfg.StartingCoins+coin.Change, w2.Balance)
	}
}

func TestBillingTypeLabels(t *testing.T) {
	end := &EndResult{Winner: 1, Outcome: OutcomeAutoWin}
	if got := billingType(end, 1); got != "auto_win" {
		t.Fatalf("got %s", got)
	}
	end = &EndResult{Winner: 1, Outcome: OutcomeSamWin}
	if got := billingType(end, 1); got != "sam_win" {
		t.Fatalf("got %s", got)
	}
	end = &EndResult{Winner: 1, Outcome: OutcomeSamFail, SamDeclarer: 2}
	if got := billingType(end, 2); got != "sam_lose" {
		t.Fatalf("got %s", got)
	}
	if got := billingType(end, 3); got != "lose" {
		t.Fatalf("got %s", got)
	}
}
