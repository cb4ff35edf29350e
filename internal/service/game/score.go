package game

import "math"

// Penalty names used in score breakdowns and billing logs.
const (
	PenaltyCong      = "cong"
	PenaltyThoi2     = "thoi_2"
	PenaltyThoiQuad  = "thoi_tu_quy"
	PenaltySamFailed = "sam_failed"
	BonusSamDeclared = "sam_declared"
)

type Penalty struct {
	Type        string  `json:"type"`
	Multiplier  float64 `json:"multiplier"`
	Description string  `json:"description"`
}

// PlayerScore is the per-player outcome of one game's scoring pass.
type PlayerScore struct {
	Score      int       `json:"score"`
	CardsLeft  int       `json:"cardsLeft"`
	Penalties  []Penalty `json:"penalties"`
	Bonuses    []Penalty `json:"bonuses"`
	TotalScore int64     `json:"totalScore"`
}

// CalculateScores computes raw scores at game end. The winner collects the
// sum of all remaining cards, doubled when they also declared Sam. Losers
// lose their remaining card count scaled by compounding penalty multipliers.
func CalculateScores(players map[int64]*Player, order []int64, winnerID, samDeclarer int64, m Multipliers) map[int64]*PlayerScore {
	scores := make(map[int64]*PlayerScore, len(players))

	for _, id := range order {
		p := players[id]
		result := &PlayerScore{
			CardsLeft: len(p.Hand),
			Penalties: []Penalty{},
			Bonuses:   []Penalty{},
		}

		if id == winnerID {
			result.Score = winnerScore(players, order, winnerID, samDeclarer, m)
			if id == samDeclarer {
				result.Bonuses = append(result.Bonuses, Penalty{
					Type:        BonusSamDeclared,
					Multiplier:  m.SamWin,
					Description: "Báo Sâm và thắng",
				})
			}
		} else {
			multiplier, penalties := loserPenalties(p, samDeclarer, m)
			result.Score = -int(math.Round(float64(len(p.Hand)) * multiplier))
			result.Penalties = penalties
		}

		result.TotalScore = p.TotalScore + int64(result.Score)
		scores[id] = result
	}

	return scores
}

func winnerScore(players map[int64]*Player, order []int64, winnerID, samDeclarer int64, m Multipliers) int {
	total := 0
	for _, id := range order {
		if id != winnerID {
			total += len(players[id].Hand)
		}
	}
	if winnerID == samDeclarer {
		total = int(math.Round(float64(total) * m.SamWin))
	}
	return total
}

// loserPenalties compounds the multiplier across every penalty that applies.
func loserPenalties(p *Player, samDeclarer int64, m Multipliers) (float64, []Penalty) {
	multiplier := 1.0
	penalties := []Penalty{}

	if p.CardsPlayed == 0 {
		multiplier *= m.Cong
		penalties = append(penalties, Penalty{
			Type:        PenaltyCong,
			Multiplier:  m.Cong,
			Description: "Cóng - chưa đánh lá nào",
		})
	}

	if hasThoi2(p) {
		multiplier *= m.Thoi2
		penalties = append(penalties, Penalty{
			Type:        PenaltyThoi2,
			Multiplier:  m.Thoi2,
			Description: "Thối 2 - ôm lá 2 cuối cùng",
		})
	}

	if p.ID == samDeclarer {
		multiplier *= m.SamLose
		penalties = append(penalties, Penalty{
			Type:        PenaltySamFailed,
			Multiplier:  m.SamLose,
			Description: "Báo Sâm nhưng không thắng",
		})
	}

	return multiplier, penalties
}

// hasThoi2 reports whether the player is stuck with a 2: either their only
// remaining card is a 2, or their last play was a single 2 while still
// holding cards.
func hasThoi2(p *Player) bool {
	if len(p.Hand) == 1 && p.Hand[0].Rank == "2" {
		return true
	}
	if p.LastMove != nil && len(p.Hand) > 0 &&
		len(p.LastMove.Cards) == 1 && p.LastMove.Cards[0].Rank == "2" {
		return true
	}
	return false
}

// hasThoiQuad reports whether the player's remaining hand still contains a
// full four of a kind.
func hasThoiQuad(p *Player) bool {
	for _, group := range GroupByRank(p.Hand) {
		if len(group) == 4 {
			return true
		}
	}
	return false
}

// OutcomeKind selects the coin settlement branch.
type OutcomeKind string

const (
	OutcomeNormal  OutcomeKind = "normal"
	OutcomeSamWin  OutcomeKind = "sam_win"
	OutcomeSamFail OutcomeKind = "sam_fail"
	OutcomeAutoWin OutcomeKind = "auto_win"
)

type CoinResult struct {
	PlayerID   int64 `json:"playerId"`
	Change     int64 `json:"coinsChange"`
	NewBalance int64 `json:"newBalance"`
}

// SettleCoins applies the coin ledger for one finished game. One function
// covers all four outcome branches; the branch only decides the base
// transfer, flat penalties and the balance floor apply uniformly after it.
func SettleCoins(players map[int64]*Player, order []int64, winnerID, samDeclarer int64, outcome OutcomeKind, rules Rules) []CoinResult {
	n := int64(len(order))
	bet := rules.Bet
	changes := make(map[int64]int64, len(order))

	switch outcome {
	case OutcomeSamWin:
		pot := bet * n * 2
		for _, id := range order {
			if id == samDeclarer {
				changes[id] = pot
			} else {
				changes[id] = -pot / (n - 1)
			}
		}
	case OutcomeSamFail:
		pot := bet * n * 2
		for _, id := range order {
			if id == samDeclarer {
				changes[id] = -pot
			} else {
				changes[id] = pot / (n - 1)
			}
		}
	case OutcomeAutoWin:
		for _, id := range order {
			if id == winnerID {
				changes[id] = bet * (n - 1)
			} else {
				changes[id] = -bet
			}
		}
	default:
		for _, id := range order {
			if id == winnerID {
				changes[id] = bet * (n - 1)
			} else {
				changes[id] = -(bet + int64(len(players[id].Hand)))
			}
		}
	}

	// Flat penalties stack on top of the branch transfer. An auto-win ends
	// the game before anyone plays, so no play-derived penalty can apply
	// there; losers pay the plain bet and nothing else.
	if outcome != OutcomeAutoWin {
		for _, id := range order {
			p := players[id]
			if id == winnerID {
				continue
			}
			if hasThoi2(p) {
				changes[id] -= bet
			}
			if hasThoiQuad(p) {
				changes[id] -= bet * 2
			}
			if p.CardsPlayed == 0 {
				changes[id] -= bet * 3
			}
		}
	}

	results := make([]CoinResult, 0, len(order))
	for _, id := range order {
		p := players[id]
		balance := p.Coins + changes[id]
		if balance < rules.MinBalance {
			balance = rules.MinBalance
		}
		p.Coins = balance
		results = append(results, CoinResult{
			PlayerID:   id,
			Change:     changes[id],
			NewBalance: balance,
		})
	}
	return results
}
