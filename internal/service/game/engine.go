package game

import (
	"time"

	appErr "samloc-service/pkg/errors"
)

// State is the lifecycle stage of one game instance.
type State string

const (
	StateWaiting      State = "waiting"
	StateDeclaringSam State = "declaring_sam"
	StatePlaying      State = "playing"
	StateEnded        State = "ended"
)

type PlayerState string

const (
	PlayerWaiting      PlayerState = "waiting"
	PlayerPlaying      PlayerState = "playing"
	PlayerFinished     PlayerState = "finished"
	PlayerDisconnected PlayerState = "disconnected"
)

// Move records a player's last accepted play. PlayedAt exists for
// diagnostics only; the engine itself never reads the clock.
type Move struct {
	Combo    *Combination `json:"combo"`
	Cards    []Card       `json:"cards"`
	PlayedAt time.Time    `json:"playedAt"`
}

// Player is the engine-local view of a participant.
type Player struct {
	ID          int64
	Name        string
	IsBot       bool
	Hand        []Card
	TotalScore  int64
	Coins       int64
	State       PlayerState
	CardsPlayed int
	LastMove    *Move
	DeclaredOne bool
	AutoWin     *AutoWin
}

// Seat seeds one player slot when an engine is created from a room roster.
type Seat struct {
	ID         int64
	Name       string
	IsBot      bool
	Coins      int64
	TotalScore int64
}

// Engine owns the mutable state of exactly one game for one room. It does
// no I/O, holds no locks and is driven one intent at a time; the hosting
// runtime serializes access.
type Engine struct {
	roomID             string
	players            map[int64]*Player
	playerOrder        []int64
	currentPlayerIndex int
	state              State
	currentCombo       *Combination
	lastComboPlayer    int64
	samDeclarer        int64
	winner             int64
	passCount          int
	rules              Rules
}

func NewEngine(roomID string, seats []Seat, rules Rules) *Engine {
	e := &Engine{
		roomID:  roomID,
		players: make(map[int64]*Player, len(seats)),
		state:   StateWaiting,
		rules:   rules,
	}
	for _, seat := range seats {
		e.players[seat.ID] = &Player{
			ID:         seat.ID,
			Name:       seat.Name,
			IsBot:      seat.IsBot,
			Hand:       []Card{},
			TotalScore: seat.TotalScore,
			Coins:      seat.Coins,
			State:      PlayerWaiting,
		}
		e.playerOrder = append(e.playerOrder, seat.ID)
	}
	return e
}

type StartResult struct {
	State       State            `json:"state"`
	Hands       map[int64][]Card `json:"-"`
	FirstPlayer int64            `json:"firstPlayer"`
	AutoWin     *AutoWin         `json:"autoWin,omitempty"`
	End         *EndResult       `json:"end,omitempty"`
}

// StartGame deals hands, resolves auto-wins, and otherwise opens the Sam
// declaration phase with the holder of the lowest card to act first.
func (e *Engine) StartGame() (*StartResult, error) {
	if e.state != StateWaiting {
		return nil, appErr.ErrGameInProgress
	}
	if len(e.playerOrder) < 2 {
		return nil, appErr.ErrNotEnoughPlayers
	}

	e.state = StateDeclaringSam
	e.dealCards()

	// First auto-win in seat order wins outright; no turn is ever taken.
	for _, id := range e.playerOrder {
		p := e.players[id]
		if autoWin := CheckAutoWin(p.Hand); autoWin != nil {
			p.AutoWin = autoWin
			return &StartResult{
				State:   StateEnded,
				Hands:   e.PlayerHands(),
				AutoWin: autoWin,
				End:     e.endGame(id),
			}, nil
		}
	}

	return &StartResult{
		State:       e.state,
		Hands:       e.PlayerHands(),
		FirstPlayer: e.findFirstPlayer(),
	}, nil
}

func (e *Engine) dealCards() {
	hands := Deal(NewDeck(), len(e.playerOrder), e.rules.CardsPerPlayer)
	for i, id := range e.playerOrder {
		e.players[id].Hand = hands[i]
		e.players[id].State = PlayerPlaying
	}
}

// findFirstPlayer picks the holder of the single lowest card. Equal ranks
// tie-break by seat order.
func (e *Engine) findFirstPlayer() int64 {
	var firstID int64
	lowest := int(^uint(0) >> 1)

	for _, id := range e.playerOrder {
		p := e.players[id]
		if len(p.Hand) > 0 && p.Hand[0].Value < lowest {
			lowest = p.Hand[0].Value
			firstID = id
		}
	}

	e.currentPlayerIndex = e.indexOf(firstID)
	return firstID
}

type DeclareSamResult struct {
	Declarer     int64  `json:"declarer"`
	DeclarerName string `json:"declarerName"`
}

// DeclareSam records the first (and only) Sam declaration and moves the
// game into play.
func (e *Engine) DeclareSam(playerID int64) (*DeclareSamResult, error) {
	if e.state != StateDeclaringSam {
		return nil, appErr.ErrWrongPhase
	}
	p, ok := e.players[playerID]
	if !ok {
		return nil, appErr.ErrPlayerNotFound
	}
	if e.samDeclarer != 0 {
		return nil, appErr.ErrSamAlreadyDeclared
	}

	e.samDeclarer = playerID
	e.state = StatePlaying

	return &DeclareSamResult{Declarer: playerID, DeclarerName: p.Name}, nil
}

// SkipSamDeclaration moves straight to play; used when nobody declares
// before the phase timeout.
func (e *Engine) SkipSamDeclaration() {
	if e.state == StateDeclaringSam {
		e.state = StatePlaying
	}
}

type PlayResult struct {
	Combo          *Combination `json:"combo"`
	CardsLeft      int          `json:"cardsLeft"`
	NeedDeclareOne bool         `json:"needDeclareOne,omitempty"`
	NextPlayer     int64        `json:"nextPlayer"`
	End            *EndResult   `json:"end,omitempty"`
}

// PlayCards validates and applies a play for the current turn holder.
func (e *Engine) PlayCards(playerID int64, cards []Card) (*PlayResult, error) {
	if e.state == StateEnded {
		return nil, appErr.ErrGameEnded
	}
	if e.state != StatePlaying {
		return nil, appErr.ErrWrongPhase
	}
	if !e.IsPlayerTurn(playerID) {
		return nil, appErr.ErrNotYourTurn
	}

	p := e.players[playerID]

	if !HasCards(p.Hand, cards) {
		return nil, appErr.ErrCardsNotInHand
	}

	combo := Identify(cards)
	if combo == nil {
		return nil, appErr.ErrInvalidCombination
	}

	if e.currentCombo != nil && !CanBeat(combo, e.currentCombo) {
		return nil, appErr.ErrCannotBeat
	}

	p.Hand = RemoveCards(p.Hand, cards)
	p.CardsPlayed += len(cards)
	p.LastMove = &Move{Combo: combo, Cards: combo.Cards, PlayedAt: time.Now()}

	e.currentCombo = combo
	e.lastComboPlayer = playerID
	e.passCount = 0

	if len(p.Hand) == 0 {
		p.State = PlayerFinished
		return &PlayResult{Combo: combo, CardsLeft: 0, End: e.endGame(playerID)}, nil
	}

	result := &PlayResult{Combo: combo, CardsLeft: len(p.Hand)}
	if len(p.Hand) == 1 && !p.DeclaredOne {
		// Advisory only: play continues whether or not the player declares.
		result.NeedDeclareOne = true
	}

	e.nextTurn()
	result.NextPlayer = e.CurrentPlayerID()
	return result, nil
}

type PassResult struct {
	NextPlayer      int64  `json:"nextPlayer"`
	RoundWinner     int64  `json:"roundWinner,omitempty"`
	RoundWinnerName string `json:"roundWinnerName,omitempty"`
}

// PassTurn gives up the current turn. When every other player has passed
// since the last play, the table clears and the last combo player leads.
func (e *Engine) PassTurn(playerID int64) (*PassResult, error) {
	if e.state == StateEnded {
		return nil, appErr.ErrGameEnded
	}
	if e.state != StatePlaying {
		return nil, appErr.ErrWrongPhase
	}
	if !e.IsPlayerTurn(playerID) {
		return nil, appErr.ErrNotYourTurn
	}
	if e.currentCombo == nil {
		return nil, appErr.ErrMustPlay
	}

	e.passCount++

	if e.passCount >= len(e.playerOrder)-1 {
		winner := e.lastComboPlayer
		e.currentCombo = nil
		e.passCount = 0
		e.currentPlayerIndex = e.indexOf(winner)
		return &PassResult{
			NextPlayer:      winner,
			RoundWinner:     winner,
			RoundWinnerName: e.players[winner].Name,
		}, nil
	}

	e.nextTurn()
	return &PassResult{NextPlayer: e.CurrentPlayerID()}, nil
}

type DeclareOneResult struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// DeclareOne sets the "bao 1" flag. Idempotent; no penalty is gated on
// skipping it.
func (e *Engine) DeclareOne(playerID int64) (*DeclareOneResult, error) {
	p, ok := e.players[playerID]
	if !ok {
		return nil, appErr.ErrPlayerNotFound
	}
	if len(p.Hand) != 1 {
		return nil, appErr.ErrMustHoldOneCard
	}

	p.DeclaredOne = true
	return &DeclareOneResult{PlayerID: playerID, PlayerName: p.Name}, nil
}

type EndResult struct {
	Winner      int64                  `json:"winner"`
	WinnerName  string                 `json:"winnerName"`
	Outcome     OutcomeKind            `json:"outcome"`
	AutoWin     *AutoWin               `json:"autoWin,omitempty"`
	Scores      map[int64]*PlayerScore `json:"scores"`
	Coins       []CoinResult           `json:"coins"`
	SamDeclarer int64                  `json:"samDeclarer,omitempty"`
	FinalHands  map[int64][]Card       `json:"finalHands"`
}

// endGame finalizes scores and the coin ledger, then parks the instance in
// its terminal state. Branch priority: auto-win > Sam success > Sam fail >
// normal.
func (e *Engine) endGame(winnerID int64) *EndResult {
	e.state = StateEnded
	e.winner = winnerID
	winner := e.players[winnerID]

	outcome := OutcomeNormal
	switch {
	case winner.AutoWin != nil:
		outcome = OutcomeAutoWin
	case e.samDeclarer != 0 && winnerID == e.samDeclarer:
		outcome = OutcomeSamWin
	case e.samDeclarer != 0:
		outcome = OutcomeSamFail
	}

	scores := CalculateScores(e.players, e.playerOrder, winnerID, e.samDeclarer, e.rules.Multipliers)

	var coins []CoinResult
	if e.rules.MoneyEnabled {
		coins = SettleCoins(e.players, e.playerOrder, winnerID, e.samDeclarer, outcome, e.rules)
	}

	for id, score := range scores {
		e.players[id].TotalScore = score.TotalScore
	}

	return &EndResult{
		Winner:      winnerID,
		WinnerName:  winner.Name,
		Outcome:     outcome,
		AutoWin:     winner.AutoWin,
		Scores:      scores,
		Coins:       coins,
		SamDeclarer: e.samDeclarer,
		FinalHands:  e.PlayerHands(),
	}
}

func (e *Engine) nextTurn() {
	e.currentPlayerIndex = (e.currentPlayerIndex + 1) % len(e.playerOrder)
}

func (e *Engine) indexOf(playerID int64) int {
	for i, id := range e.playerOrder {
		if id == playerID {
			return i
		}
	}
	return 0
}

func (e *Engine) IsPlayerTurn(playerID int64) bool {
	return e.CurrentPlayerID() == playerID
}

func (e *Engine) CurrentPlayerID() int64 {
	if len(e.playerOrder) == 0 {
		return 0
	}
	return e.playerOrder[e.currentPlayerIndex]
}

func (e *Engine) NextPlayerID() int64 {
	if len(e.playerOrder) == 0 {
		return 0
	}
	return e.playerOrder[(e.currentPlayerIndex+1)%len(e.playerOrder)]
}

func (e *Engine) State() State { return e.state }

func (e *Engine) CurrentCombo() *Combination { return e.currentCombo }

func (e *Engine) SamDeclarer() int64 { return e.samDeclarer }

func (e *Engine) Winner() int64 { return e.winner }

func (e *Engine) Player(playerID int64) (*Player, bool) {
	p, ok := e.players[playerID]
	return p, ok
}

func (e *Engine) PlayerHand(playerID int64) []Card {
	p, ok := e.players[playerID]
	if !ok {
		return nil
	}
	hand := make([]Card, len(p.Hand))
	copy(hand, p.Hand)
	return hand
}

func (e *Engine) PlayerHands() map[int64][]Card {
	hands := make(map[int64][]Card, len(e.players))
	for id := range e.players {
		hands[id] = e.PlayerHand(id)
	}
	return hands
}

// BotTurn reports whose turn it is and whether that seat is a bot. The
// hosting dispatcher owns all bot timing; the engine only answers this.
func (e *Engine) BotTurn() (int64, bool) {
	if e.state != StatePlaying && e.state != StateDeclaringSam {
		return 0, false
	}
	id := e.CurrentPlayerID()
	p, ok := e.players[id]
	if !ok {
		return 0, false
	}
	return id, p.IsBot
}

type PublicPlayer struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	IsBot       bool        `json:"isBot,omitempty"`
	CardCount   int         `json:"cardCount"`
	TotalScore  int64       `json:"totalScore"`
	State       PlayerState `json:"state"`
	DeclaredOne bool        `json:"declaredOne"`
}

// PublicState is the snapshot safe to broadcast to every client. Hands are
// deliberately absent; the dispatcher sends those privately.
type PublicState struct {
	RoomID          string                 `json:"roomId"`
	State           State                  `json:"state"`
	Players         map[int64]PublicPlayer `json:"players"`
	PlayerOrder     []int64                `json:"playerOrder"`
	CurrentPlayer   int64                  `json:"currentPlayer"`
	CurrentCombo    *Combination           `json:"currentCombo"`
	LastComboPlayer int64                  `json:"lastComboPlayer,omitempty"`
	SamDeclarer     int64                  `json:"samDeclarer,omitempty"`
	Winner          int64                  `json:"winner,omitempty"`
}

func (e *Engine) PublicState() PublicState {
	players := make(map[int64]PublicPlayer, len(e.players))
	for id, p := range e.players {
		players[id] = PublicPlayer{
			ID:          p.ID,
			Name:        p.Name,
			IsBot:       p.IsBot,
			CardCount:   len(p.Hand),
			TotalScore:  p.TotalScore,
			State:       p.State,
			DeclaredOne: p.DeclaredOne,
		}
	}
	order := make([]int64, len(e.playerOrder))
	copy(order, e.playerOrder)

	return PublicState{
		RoomID:          e.roomID,
		State:           e.state,
		Players:         players,
		PlayerOrder:     order,
		CurrentPlayer:   e.CurrentPlayerID(),
		CurrentCombo:    e.currentCombo,
		LastComboPlayer: e.lastComboPlayer,
		SamDeclarer:     e.samDeclarer,
		Winner:          e.winner,
	}
}
