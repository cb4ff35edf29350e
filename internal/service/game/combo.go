package game

// ComboType classifies a play.
type ComboType string

const (
	ComboSingle   ComboType = "single"
	ComboPair     ComboType = "pair"
	ComboTriple   ComboType = "triple" // sam
	ComboQuad     ComboType = "quad"   // tu quy
	ComboStraight ComboType = "straight"
)

// Combination is a classified set of played cards. Value is the rank value
// used for comparisons (the highest card for straights). Length is only
// meaningful for straights.
type Combination struct {
	Type   ComboType `json:"type"`
	Value  int       `json:"value"`
	Length int       `json:"length,omitempty"`
	Cards  []Card    `json:"cards"`
}

// Identify classifies cards into a combination, or returns nil if the set
// is not a legal Sam Loc play.
func Identify(cards []Card) *Combination {
	if len(cards) == 0 {
		return nil
	}

	sorted := make([]Card, len(cards))
	copy(sorted, cards)
	SortCards(sorted)

	if len(sorted) == 1 {
		return &Combination{Type: ComboSingle, Value: sorted[0].Value, Cards: sorted}
	}

	if allSameValue(sorted) {
		switch len(sorted) {
		case 2:
			return &Combination{Type: ComboPair, Value: sorted[0].Value, Cards: sorted}
		case 3:
			return &Combination{Type: ComboTriple, Value: sorted[0].Value, Cards: sorted}
		case 4:
			return &Combination{Type: ComboQuad, Value: sorted[0].Value, Cards: sorted}
		default:
			return nil
		}
	}

	if IsStraight(sorted) {
		return &Combination{
			Type:   ComboStraight,
			Value:  sorted[len(sorted)-1].Value,
			Length: len(sorted),
			Cards:  sorted,
		}
	}

	return nil
}

// IsStraight reports whether the sorted cards form a run of strictly
// consecutive values, length 3 or more. A "2" (value 15) can only terminate
// a run since no higher value exists.
func IsStraight(sortedCards []Card) bool {
	if len(sortedCards) < 3 {
		return false
	}
	for i := 1; i < len(sortedCards); i++ {
		if sortedCards[i].Value != sortedCards[i-1].Value+1 {
			return false
		}
	}
	return true
}

// CanBeat reports whether candidate beats table. Types must match exactly:
// quads carry no bomb power over other types in this ruleset. Straights
// compare by length first, then by value on equal length.
func CanBeat(candidate, table *Combination) bool {
	if candidate == nil || table == nil {
		return false
	}
	if candidate.Type != table.Type {
		return false
	}

	if candidate.Type == ComboStraight {
		if candidate.Length > table.Length {
			return true
		}
		if candidate.Length == table.Length {
			return candidate.Value > table.Value
		}
		return false
	}

	return candidate.Value > table.Value
}

// HasCards reports whether every proposed card is available in the hand,
// each hand card usable at most once.
func HasCards(hand, cards []Card) bool {
	remaining := make([]Card, len(hand))
	copy(remaining, hand)

	for _, card := range cards {
		idx := indexOfCard(remaining, card)
		if idx < 0 {
			return false
		}
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return true
}

// RemoveCards returns the hand with the given card instances removed,
// first match by (rank, suit).
func RemoveCards(hand, cards []Card) []Card {
	out := make([]Card, len(hand))
	copy(out, hand)

	for _, card := range cards {
		if idx := indexOfCard(out, card); idx >= 0 {
			out = append(out[:idx], out[idx+1:]...)
		}
	}
	return out
}

func indexOfCard(cards []Card, target Card) int {
	for i, c := range cards {
		if c.Equals(target) {
			return i
		}
	}
	return -1
}

func allSameValue(cards []Card) bool {
	for _, c := range cards {
		if c.Value != cards[0].Value {
			return false
		}
	}
	return true
}

// Auto-win conditions, in priority order.
const (
	AutoWinStraight10   = "straight_10"   // sanh rong
	AutoWinQuad2        = "quad_2"        // tu quy 2
	AutoWinFivePairs    = "five_pairs"    // 5 doi
	AutoWinThreeTriples = "three_triples" // 3 sam co
)

type AutoWin struct {
	Condition   string `json:"condition"`
	Description string `json:"description"`
}

// CheckAutoWin inspects a full 10-card starting hand for an instant win
// (an trang). The first matching condition wins.
func CheckAutoWin(hand []Card) *AutoWin {
	if len(hand) != 10 {
		return nil
	}

	sorted := make([]Card, len(hand))
	copy(sorted, hand)
	SortCards(sorted)
	if IsStraight(sorted) {
		return &AutoWin{Condition: AutoWinStraight10, Description: "Sảnh rồng - 10 lá liên tiếp"}
	}

	groups := GroupByRank(hand)

	if len(groups["2"]) == 4 {
		return &AutoWin{Condition: AutoWinQuad2, Description: "Tứ quý 2"}
	}

	pairs, triples := 0, 0
	other := false
	for _, group := range groups {
		switch len(group) {
		case 2:
			pairs++
		case 3:
			triples++
		default:
			other = true
		}
	}
	if pairs == 5 && !other && triples == 0 {
		return &AutoWin{Condition: AutoWinFivePairs, Description: "5 đôi"}
	}
	if triples == 3 {
		return &AutoWin{Condition: AutoWinThreeTriples, Description: "3 sám cô"}
	}

	return nil
}

// GroupByRank buckets a hand by rank, preserving hand order within groups.
func GroupByRank(hand []Card) map[string][]Card {
	groups := make(map[string][]Card)
	for _, card := range hand {
		groups[card.Rank] = append(groups[card.Rank], card)
	}
	return groups
}
