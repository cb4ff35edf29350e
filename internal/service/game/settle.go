package game

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"samloc-service/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type playerResultRecord struct {
	UserID      int64     `json:"userId"`
	Name        string    `json:"name"`
	IsBot       bool      `json:"isBot,omitempty"`
	Score       int       `json:"score"`
	CardsLeft   int       `json:"cardsLeft"`
	CoinsChange int64     `json:"coinsChange"`
	NewBalance  int64     `json:"newBalance"`
	Penalties   []Penalty `json:"penalties,omitempty"`
}

// persistResult writes one finished game to the database: wallet balances,
// billing logs, the game record and per-user stats. Bot seats appear in the
// result record but never touch a wallet.
func (s *Service) persistResult(ctx context.Context, rt *RoomRuntime, end *EndResult) error {
	engine := rt.engine
	now := time.Now()

	coinByID := make(map[int64]CoinResult, len(end.Coins))
	for _, c := range end.Coins {
		coinByID[c.PlayerID] = c
	}

	records := make([]playerResultRecord, 0, len(engine.playerOrder))
	for _, id := range engine.playerOrder {
		p := engine.players[id]
		score := end.Scores[id]
		records = append(records, playerResultRecord{
			UserID:      id,
			Name:        p.Name,
			IsBot:       p.IsBot,
			Score:       score.Score,
			CardsLeft:   score.CardsLeft,
			CoinsChange: coinByID[id].Change,
			NewBalance:  coinByID[id].NewBalance,
			Penalties:   score.Penalties,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallets := newWalletBook(tx, s.cfg.StartingCoins)
		billingLogs := make([]model.BillingLog, 0, len(engine.playerOrder))

		record := model.GameRecord{
			RoomID:     rt.roomID,
			WinnerID:   end.Winner,
			Outcome:    string(end.Outcome),
			BetAmount:  engine.rules.Bet,
			ResultJSON: mustJSON(records),
			EndedAt:    now,
			CreatedAt:  now,
		}
		if end.SamDeclarer != 0 {
			declarer := end.SamDeclarer
			record.SamDeclarer = &declarer
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		for _, id := range engine.playerOrder {
			p := engine.players[id]
			if p.IsBot || id <= 0 {
				continue
			}
			score := end.Scores[id]

			if s.cfg.Money.Enabled {
				coin, ok := coinByID[id]
				if ok {
					wallet, err := wallets.Ensure(id)
					if err != nil {
						return err
					}
					wallet.Balance += coin.Change
					if wallet.Balance < s.cfg.Money.MinBalance {
						wallet.Balance = s.cfg.Money.MinBalance
					}
					switch {
					case coin.Change > 0:
						wallet.TotalWin += coin.Change
					case coin.Change < 0:
						wallet.TotalLoss += -coin.Change
					}
					wallet.TotalPenalty += flatPenalty(p, id == end.Winner, end.Outcome, engine.rules.Bet)

					meta := map[string]interface{}{
						"roomId":    rt.roomID,
						"outcome":   end.Outcome,
						"score":     score.Score,
						"cardsLeft": score.CardsLeft,
					}
					if len(score.Penalties) > 0 {
						meta["penalties"] = score.Penalties
					}
					billingLogs = append(billingLogs, model.BillingLog{
						UserID:       id,
						Type:         billingType(end, id),
						Delta:        coin.Change,
						BalanceAfter: wallet.Balance,
						GameID:       &record.ID,
						MetaJSON:     mustJSON(meta),
						CreatedAt:    now,
					})
				}
			}

			updates := map[string]interface{}{
				"total_score":  score.TotalScore,
				"games_played": gorm.Expr("games_played + 1"),
			}
			if id == end.Winner {
				updates["games_won"] = gorm.Expr("games_won + 1")
			}
			if err := tx.Model(&model.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		if err := wallets.SaveAll(now); err != nil {
			return err
		}

		if len(billingLogs) > 0 {
			if err := tx.Create(&billingLogs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.board != nil {
		for _, id := range engine.playerOrder {
			p := engine.players[id]
			if p.IsBot || id <= 0 {
				continue
			}
			s.board.Record(ctx, id, int64(end.Scores[id].Score))
		}
	}
	return nil
}

// billingType labels a player's ledger entry by role and outcome.
func billingType(end *EndResult, userID int64) string {
	if userID == end.Winner {
		switch end.Outcome {
		case OutcomeAutoWin:
			return "auto_win"
		case OutcomeSamWin:
			return "sam_win"
		default:
			return "win"
		}
	}
	if end.Outcome == OutcomeSamFail && userID == end.SamDeclarer {
		return "sam_lose"
	}
	return "lose"
}

// flatPenalty recomputes the fixed coin penalties a losing player owed.
// Auto-win games carry none; see SettleCoins.
func flatPenalty(p *Player, isWinner bool, outcome OutcomeKind, bet int64) int64 {
	if isWinner || outcome == OutcomeAutoWin {
		return 0
	}
	var total int64
	if hasThoi2(p) {
		total += bet
	}
	if hasThoiQuad(p) {
		total += bet * 2
	}
	if p.CardsPlayed == 0 {
		total += bet * 3
	}
	return total
}

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

type walletBook struct {
	tx            *gorm.DB
	startingCoins int64
	entries       map[int64]*walletEntry
}

type walletEntry struct {
	wallet *model.Wallet
	exists bool
	dirty  bool
}

func newWalletBook(tx *gorm.DB, startingCoins int64) *walletBook {
	return &walletBook{
		tx:            tx,
		startingCoins: startingCoins,
		entries:       make(map[int64]*walletEntry),
	}
}

// Ensure loads a wallet under a row lock, creating a fresh one at the
// starting balance when the user has never been funded.
func (wb *walletBook) Ensure(userID int64) (*model.Wallet, error) {
	if entry, ok := wb.entries[userID]; ok {
		entry.dirty = true
		return entry.wallet, nil
	}

	wallet := &model.Wallet{}
	err := wb.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(wallet).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		wallet = &model.Wallet{UserID: userID, Balance: wb.startingCoins}
	}

	entry := &walletEntry{
		wallet: wallet,
		exists: err == nil,
		dirty:  true,
	}
	wb.entries[userID] = entry
	return wallet, nil
}

func (wb *walletBook) SaveAll(now time.Time) error {
	for _, entry := range wb.entries {
		if !entry.dirty {
			continue
		}
		entry.wallet.UpdatedAt = now
		var err error
		if entry.exists {
			err = wb.tx.Save(entry.wallet).Error
		} else {
			err = wb.tx.Create(entry.wallet).Error
			if err == nil {
				entry.exists = true
			}
		}
		if err != nil {
			return err
		}
		entry.dirty = false
	}
	return nil
}
