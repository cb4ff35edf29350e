package game_test

import (
	"testing"

	"samloc-service/internal/service/game"
)

func testMultipliers() game.Multipliers {
	return game.Multipliers{Cong: 2, Thoi2: 1.5, SamWin: 2, SamLose: 2, AutoWin: 3}
}

func testRules(bet int64) game.Rules {
	return game.Rules{
		Bet:            bet,
		CardsPerPlayer: 10,
		MoneyEnabled:   true,
		MinBalance:     0,
		Multipliers:    testMultipliers(),
	}
}

func makePlayers(hands map[int64][]game.Card, coins int64) (map[int64]*game.Player, []int64) {
	players := make(map[int64]*game.Player, len(hands))
	order := make([]int64, 0, len(hands))
	ids := []int64{1, 2, 3, 4}
	for _, id := range ids {
		hand, ok := hands[id]
		if !ok {
			continue
		}
		players[id] = &game.Player{
			ID:          id,
			Hand:        hand,
			Coins:       coins,
			CardsPlayed: 10 - len(hand),
		}
		order = append(order, id)
	}
	return players, order
}

func TestCalculateScoresNormalWin(t *testing.T) {
	players, order := makePlayers(map[int64][]game.Card{
		1: {},
		2: cards([2]string{"5", "hearts"}, [2]string{"8", "clubs"}),
		3: cards([2]string{"J", "spades"}),
	}, 1000)

	scores := game.CalculateScores(players, order, 1, 0, testMultipliers())

	if scores[1].Score != 3 {
		t.Fatalf("winner should collect 3 (sum of losers' cards), got %d", scores[1].Score)
	}
	if scores[2].Score != -2 {
		t.Fatalf("player 2 should lose 2, got %d", scores[2].Score)
	}
	if scores[3].Score != -1 {
		t.Fatalf("player 3 should lose 1, got %d", scores[3].Score)
	}
}

func TestCalculateScoresSamWinnerDoubles(t *testing.T) {
	players, order := makePlayers(map[int64][]game.Card{
		1: {},
		2: cards([2]string{"5", "hearts"}, [2]string{"8", "clubs"}, [2]string{"9", "clubs"}),
	}, 1000)

	scores := game.CalculateScores(players, order, 1, 1, testMultipliers())
	if scores[1].Score != 6 {
		t.Fatalf("sam winner should collect doubled score 6, got %d", scores[1].Score)
	}
	if len(scores[1].Bonuses) != 1 {
		t.Fatalf("expected sam bonus entry, got %+v", scores[1].Bonuses)
	}
}

func TestCalculateScoresPenaltiesCompound(t *testing.T) {
	players, order := makePlayers(map[int64][]game.Card{
		1: {},
		2: cards([2]string{"2", "spades"}, [2]string{"9", "clubs"}),
	}, 1000)
	// Player 2 never played a card and is left holding a lone 2:
	// cong (x2) compounds with thoi 2 (x1.5).
	players[2].CardsPlayed = 0
	players[2].Hand = cards([2]string{"2", "spades"})

	scores := game.CalculateScores(players, order, 1, 0, testMultipliers())
	if scores[2].Score != -3 {
		t.Fatalf("expected -3 (1 card x2 cong x1.5 thoi2), got %d", scores[2].Score)
	}
	if len(scores[2].Penalties) != 2 {
		t.Fatalf("expected cong and thoi_2 penalties, got %+v", scores[2].Penalties)
	}
}

func TestCalculateScoresSamFailStrictlyWorse(t *testing.T) {
	hands := map[int64][]game.Card{
		1: {},
		2: cards([2]string{"5", "hearts"}, [2]string{"8", "clubs"}, [2]string{"9", "clubs"}),
	}

	plain, orderA := makePlayers(hands, 1000)
	failed, orderB := makePlayers(hands, 1000)

	plainScores := game.CalculateScores(plain, orderA, 1, 0, testMultipliers())
	failScores := game.CalculateScores(failed, orderB, 1, 2, testMultipliers())

	if failScores[2].Score >= plainScores[2].Score {
		t.Fatalf("failed sam declarer must score strictly worse: %d vs %d",
			failScores[2].Score, plainScores[2].Score)
	}
}

func TestSettleCoinsNormalOutcome(t *testing.T) {
	players, order := makePlayers(map[int64][]game.Card{
		1: {},
		2: cards([2]string{"5", "hearts"}, [2]string{"8", "clubs"}),
		3: cards([2]string{"J", "spades"}),
	}, 1000)

	results := game.SettleCoins(players, order, 1, 0, game.OutcomeNormal, testRules(100))

	byID := map[int64]game.CoinResult{}
	for _, r := range results {
		byID[r.PlayerID] = r
	}

	if byID[1].Change != 200 {
		t.Fatalf("winner should gain bet x (n-1) = 200, got %d", byID[1].Change)
	}
	if byID[2].Change != -102 {
		t.Fatalf("loser 2 should pay bet + cards = 102, got %d", byID[2].Change)
	}
	if byID[3].Change != -101 {
		t.Fatalf("loser 3 should pay bet + cards = 101, got %d", byID[3].Change)
	}
}

func TestSettleCoinsSamOutcomes(t *testing.T) {
	players, order := makePlayers(map[int64][]game.Card{
		1: {},
		2: cards([2]string{"5", "hearts"}),
		3: cards([2]string{"8", "clubs"}),
	}, 5000)

	// Sam success: declarer collects bet x n x 2, others split the cost.
	win := game.SettleCoins(players, order, 1, 1, game.OutcomeSamWin, testRules(100))
	byID := map[int64]game.CoinResult{}
	for _, r := range win {
		byID[r.PlayerID] = r
	}
	if byID[1].Change != 600 {
		t.Fatalf("sam winner should gain 600, got %d", byID[1].Change)
	}
	if byID[2].Change != -300 || byID[3].Change != -300 {
		t.Fatalf("sam losers should each pay 300, got %d and %d", byID[2].Change, byID[3].Change)
	}

	// Sam failure: declarer pays the pot, others share it.
	players2, order2 := makePlayers(map[int64][]game.Card{
		1: {},
		2: cards([2]string{"5", "hearts"}),
		3: cards([2]string{"8", "clubs"}),
	}, 5000)
	fail := game.SettleCoins(players2, order2, 1, 2, game.OutcomeSamFail, testRules(100))
	byID = map[int64]game.CoinResult{}
	for _, r := range fail {
		byID[r.PlayerID] = r
	}
	if byID[2].Change != -600 {
		t.Fatalf("failed declarer should pay 600, got %d", byID[2].Change)
	}
	if byID[1].Change != 300 || byID[3].Change != 300 {
		t.Fatalf("others should each gain 300, got %d and %d", byID[1].Change, byID[3].Change)
	}
}

func TestSettleCoinsAutoWinSkipsFlatPenalties(t *testing.T) {
	players, order := makePlayers(map[int64][]game.Card{
		1: {},
		2: cards(
			[2]string{"5", "hearts"}, [2]string{"5", "spades"},
			[2]string{"5", "clubs"}, [2]string{"5", "diamonds"},
			[2]string{"2", "spades"},
		),
	}, 5000)
	// The game ended at the deal; nobody ever played.
	players[2].CardsPlayed = 0

	results := game.SettleCoins(players, order, 1, 0, game.OutcomeAutoWin, testRules(100))
	byID := map[int64]game.CoinResult{}
	for _, r := range results {
		byID[r.PlayerID] = r
	}

	if byID[1].Change != 100 {
		t.Fatalf("auto-win winner must gain bet x (n-1) = 100, got %d", byID[1].Change)
	}
	// The held quad and the cong condition both hold on paper, but neither
	// is a play-derived loss in a game with no plays.
	if byID[2].Change != -100 {
		t.Fatalf("auto-win loser must lose exactly bet (100), got %d", byID[2].Change)
	}
}

func TestSettleCoinsFlatPenalties(t *testing.T) {
	players, order := makePlayers(map[int64][]game.Card{
		1: {},
		2: cards([2]string{"2", "spades"}),
	}, 5000)
	players[2].CardsPlayed = 0 // cong

	results := game.SettleCoins(players, order, 1, 0, game.OutcomeNormal, testRules(100))
	var loser game.CoinResult
	for _, r := range results {
		if r.PlayerID == 2 {
			loser = r
		}
	}

	// base -(100+1), thoi 2 -100, cong -300
	if loser.Change != -501 {
		t.Fatalf("expected -501 with thoi2 and cong penalties, got %d", loser.Change)
	}
}

func TestSettleCoinsClampsAtFloor(t *testing.T) {
	players, order := makePlayers(map[int64][]game.Card{
		1: {},
		2: cards([2]string{"5", "hearts"}),
	}, 50)

	results := game.SettleCoins(players, order, 1, 0, game.OutcomeNormal, testRules(100))
	for _, r := range results {
		if r.PlayerID == 2 && r.NewBalance != 0 {
			t.Fatalf("balance must clamp at floor 0, got %d", r.NewBalance)
		}
	}
	if players[2].Coins != 0 {
		t.Fatalf("player coins should reflect clamped balance, got %d", players[2].Coins)
	}
}
