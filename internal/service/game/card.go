package game

import (
	mrand "math/rand"
	"sort"
)

// Card is a single playing card. Ordering uses Value only: 3 is the lowest
// rank and 2 the highest (value 15, above the ace). Suit never affects
// comparisons in Sam Loc, it only distinguishes otherwise equal cards.
type Card struct {
	Rank  string `json:"rank"` // "3".."10","J","Q","K","A","2"
	Suit  string `json:"suit"` // "hearts","diamonds","clubs","spades"
	Value int    `json:"value"`
}

var CardValues = map[string]int{
	"3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 11, "Q": 12, "K": 13, "A": 14, "2": 15,
}

var Ranks = []string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}

var Suits = []string{"hearts", "diamonds", "clubs", "spades"}

// HighCardValue is the threshold above which a card counts as "high"
// for bot heuristics (K, A, 2).
const HighCardValue = 13

func NewCard(rank, suit string) Card {
	return Card{Rank: rank, Suit: suit, Value: CardValues[rank]}
}

func (c Card) Equals(other Card) bool {
	return c.Rank == other.Rank && c.Suit == other.Suit
}

// NewDeck returns the 52 unique cards in rank order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, NewCard(rank, suit))
		}
	}
	return deck
}

// Shuffle permutes the deck in place.
func Shuffle(deck []Card) {
	mrand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// Deal shuffles the deck and slices it into numPlayers hands of perPlayer
// cards each, sorted ascending by value. With 4 players and 10 cards per
// hand, 12 of the 52 cards stay undealt; that is part of the game design.
func Deal(deck []Card, numPlayers, perPlayer int) [][]Card {
	Shuffle(deck)
	hands := make([][]Card, 0, numPlayers)
	for i := 0; i < numPlayers; i++ {
		hand := make([]Card, perPlayer)
		copy(hand, deck[i*perPlayer:(i+1)*perPlayer])
		SortCards(hand)
		hands = append(hands, hand)
	}
	return hands
}

// SortCards orders cards ascending by value.
func SortCards(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Value < cards[j].Value
	})
}
