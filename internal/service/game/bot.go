package game

import (
	mrand "math/rand"
	"sort"
)

// Bot picks legal moves for computer-controlled seats. It goes through the
// same validator as human plays, so it can never produce an illegal move.
type Bot struct {
	ID   int64
	Name string
}

func NewBot(id int64, name string) *Bot {
	return &Bot{ID: id, Name: name}
}

// holdBackChance is how often a bot with a small hand keeps a high card
// instead of beating the table with it.
const holdBackChance = 0.3

// DecideMove returns the cards to play, or nil when the bot has no legal
// move and must pass.
func (b *Bot) DecideMove(hand []Card, current *Combination, isFirstMove bool) []Card {
	if isFirstMove || current == nil {
		return b.leadLowest(hand)
	}
	return b.beat(hand, current)
}

// leadLowest discards the largest legal grouping first: quad, then triple,
// then the lowest straight, then a pair, then the single lowest card.
func (b *Bot) leadLowest(hand []Card) []Card {
	if len(hand) == 0 {
		return nil
	}

	groups := GroupByRank(hand)

	for _, rank := range sortedGroupRanks(groups) {
		if len(groups[rank]) == 4 {
			return groups[rank]
		}
	}
	for _, rank := range sortedGroupRanks(groups) {
		if len(groups[rank]) == 3 {
			return groups[rank]
		}
	}
	if straight := lowestStraight(hand); straight != nil {
		return straight
	}
	for _, rank := range sortedGroupRanks(groups) {
		if len(groups[rank]) == 2 {
			return groups[rank]
		}
	}

	sorted := sortedCopy(hand)
	return []Card{sorted[0]}
}

// beat finds the cheapest play that beats the table combination, or nil.
func (b *Bot) beat(hand []Card, current *Combination) []Card {
	if current == nil {
		return nil
	}

	sorted := sortedCopy(hand)

	switch current.Type {
	case ComboSingle:
		for _, c := range sorted {
			if c.Value > current.Value {
				return []Card{c}
			}
		}
		return nil
	case ComboPair:
		return beatingGroup(sorted, 2, current.Value)
	case ComboTriple:
		return beatingGroup(sorted, 3, current.Value)
	case ComboQuad:
		return beatingGroup(sorted, 4, current.Value)
	case ComboStraight:
		return beatingStraight(sorted, current)
	default:
		return nil
	}
}

// ShouldDeclareSam decides whether the bot announces Sam before play.
func (b *Bot) ShouldDeclareSam(hand []Card) bool {
	if CheckAutoWin(hand) != nil {
		return true
	}

	highCards := 0
	for _, c := range hand {
		if c.Value >= HighCardValue {
			highCards++
		}
	}

	groups := GroupByRank(hand)
	pairs, triples := 0, 0
	for _, group := range groups {
		switch len(group) {
		case 2:
			pairs++
		case 3:
			triples++
		}
	}

	return highCards >= 6 || pairs >= 3 || triples >= 2
}

// ShouldPass decides whether to pass on the current table combination.
// With few cards left and only a high-card answer, the bot sometimes holds
// back; callers must treat the outcome as randomized.
func (b *Bot) ShouldPass(hand []Card, current *Combination) bool {
	if current == nil {
		return false
	}

	move := b.beat(hand, current)
	if move == nil {
		return true
	}

	if len(hand) <= 3 {
		for _, c := range move {
			if c.Value >= HighCardValue {
				return mrand.Float64() < holdBackChance
			}
		}
	}

	return false
}

// beatingGroup returns the lowest same-rank group of the given size whose
// value beats target, using exactly size cards from the group.
func beatingGroup(sortedHand []Card, size, target int) []Card {
	groups := GroupByRank(sortedHand)
	for _, rank := range sortedGroupRanks(groups) {
		group := groups[rank]
		if len(group) >= size && group[0].Value > target {
			if size == 4 && len(group) != 4 {
				continue
			}
			return group[:size]
		}
	}
	return nil
}

func beatingStraight(sortedHand []Card, current *Combination) []Card {
	// Equal length, higher terminal value first.
	for i := 0; i+current.Length <= len(sortedHand); i++ {
		window := sortedHand[i : i+current.Length]
		if IsStraight(window) && window[len(window)-1].Value > current.Value {
			return window
		}
	}
	// Otherwise any longer straight wins outright.
	for length := current.Length + 1; length <= len(sortedHand); length++ {
		for i := 0; i+length <= len(sortedHand); i++ {
			window := sortedHand[i : i+length]
			if IsStraight(window) {
				return window
			}
		}
	}
	return nil
}

func lowestStraight(hand []Card) []Card {
	sorted := sortedCopy(hand)
	for length := 3; length <= len(sorted); length++ {
		for i := 0; i+length <= len(sorted); i++ {
			window := sorted[i : i+length]
			if IsStraight(window) {
				return window
			}
		}
	}
	return nil
}

func sortedCopy(hand []Card) []Card {
	out := make([]Card, len(hand))
	copy(out, hand)
	SortCards(out)
	return out
}

// sortedGroupRanks orders rank keys ascending by card value so group scans
// always find the lowest candidate first.
func sortedGroupRanks(groups map[string][]Card) []string {
	ranks := make([]string, 0, len(groups))
	for rank := range groups {
		ranks = append(ranks, rank)
	}
	sort.Slice(ranks, func(i, j int) bool {
		return CardValues[ranks[i]] < CardValues[ranks[j]]
	})
	return ranks
}
