package game

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"samloc-service/internal/config"
	appErr "samloc-service/pkg/errors"
	"samloc-service/pkg/logger"

	"go.uber.org/zap"
)

const botThinkDelay = 1200 * time.Millisecond

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// RoomState is the per-subscriber export: the shared public snapshot plus
// the receiver's own hand and countdown.
type RoomState struct {
	PublicState
	MyHand    []Card `json:"myHand"`
	Countdown int    `json:"countdown"`
	YourTurn  bool   `json:"yourTurn"`
}

// RoomRuntime hosts one engine instance for one room. It owns the lock,
// the subscriber channels, the turn and declaration timers, and the bot
// scheduling; the engine stays synchronous underneath it.
type RoomRuntime struct {
	roomID string
	hostID int64
	engine *Engine
	cfg    config.GameConfig

	seq         int64
	subscribers map[int64]chan OutgoingMessage

	turnTimer    *time.Timer
	declareTimer *time.Timer
	botTimer     *time.Timer
	turnDeadline time.Time
	ended        bool

	mu sync.Mutex

	onFinish func(*RoomRuntime, *EndResult)
}

func newRoomRuntime(roomID string, hostID int64, seats []Seat, cfg config.GameConfig, bet int64, onFinish func(*RoomRuntime, *EndResult)) *RoomRuntime {
	return &RoomRuntime{
		roomID:      roomID,
		hostID:      hostID,
		engine:      NewEngine(roomID, seats, RulesFromConfig(cfg, bet)),
		cfg:         cfg,
		subscribers: make(map[int64]chan OutgoingMessage),
		onFinish:    onFinish,
	}
}

func (rt *RoomRuntime) RoomID() string { return rt.roomID }

func (rt *RoomRuntime) Subscribe(userID int64) chan OutgoingMessage {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ch := make(chan OutgoingMessage, 8)
	rt.subscribers[userID] = ch
	rt.pushStateLocked(userID)
	return ch
}

func (rt *RoomRuntime) Unsubscribe(userID int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if ch, ok := rt.subscribers[userID]; ok {
		delete(rt.subscribers, userID)
		close(ch)
	}
}

// ResetSeats rebuilds the engine from a fresh room roster. Only legal
// before dealing; once cards are out the lineup is fixed.
func (rt *RoomRuntime) ResetSeats(hostID int64, seats []Seat, bet int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.ended {
		return appErr.ErrGameEnded
	}
	if rt.engine.State() != StateWaiting {
		return appErr.ErrGameInProgress
	}

	rt.hostID = hostID
	rt.engine = NewEngine(rt.roomID, seats, RulesFromConfig(rt.cfg, bet))
	return nil
}

func (rt *RoomRuntime) Ended() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.ended
}

func (rt *RoomRuntime) HandleAction(userID int64, action string, data json.RawMessage) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch action {
	case "start":
		return rt.handleStartLocked(userID)
	case "declare_sam":
		return rt.handleDeclareSamLocked(userID)
	case "skip_sam":
		return rt.handleSkipSamLocked(userID)
	case "play_cards":
		var payload struct {
			Cards []Card `json:"cards"`
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &payload); err != nil {
				return appErr.ErrInvalidCombination
			}
		}
		return rt.handlePlayLocked(userID, payload.Cards)
	case "pass":
		return rt.handlePassLocked(userID)
	case "declare_one":
		return rt.handleDeclareOneLocked(userID)
	case "rejoin":
		rt.pushStateLocked(userID)
		return nil
	case "ping":
		rt.pushMessageLocked(userID, OutgoingMessage{Type: "pong", Seq: rt.nextSeqLocked(), Data: ginH{"message": "pong"}})
		return nil
	default:
		return fmt.Errorf("unsupported action")
	}
}

func (rt *RoomRuntime) handleStartLocked(userID int64) error {
	if userID != rt.hostID {
		return appErr.ErrNotHost
	}

	result, err := rt.engine.StartGame()
	if err != nil {
		return err
	}

	logger.Log.Info("game started",
		zap.String("roomID", rt.roomID),
		zap.Int64("hostID", userID),
	)

	if result.End != nil {
		rt.finishLocked(result.End)
		return nil
	}

	rt.resetDeclareTimerLocked()
	rt.broadcastStateLocked()
	rt.scheduleBotDeclareLocked()
	return nil
}

func (rt *RoomRuntime) handleDeclareSamLocked(userID int64) error {
	result, err := rt.engine.DeclareSam(userID)
	if err != nil {
		return err
	}

	rt.cancelDeclareTimerLocked()
	rt.broadcastMessageLocked(OutgoingMessage{Type: "sam_declared", Seq: rt.nextSeqLocked(), Data: result})
	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
	rt.scheduleBotTurnLocked()
	return nil
}

func (rt *RoomRuntime) handleSkipSamLocked(userID int64) error {
	if userID != rt.hostID {
		return appErr.ErrNotHost
	}
	if rt.engine.State() != StateDeclaringSam {
		return appErr.ErrWrongPhase
	}
	rt.beginPlayLocked()
	return nil
}

// beginPlayLocked closes the declaration window and opens normal play.
func (rt *RoomRuntime) beginPlayLocked() {
	rt.cancelDeclareTimerLocked()
	rt.engine.SkipSamDeclaration()
	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
	rt.scheduleBotTurnLocked()
}

func (rt *RoomRuntime) handlePlayLocked(userID int64, cards []Card) error {
	result, err := rt.engine.PlayCards(userID, cards)
	if err != nil {
		return err
	}
	rt.afterPlayLocked(userID, result)
	return nil
}

func (rt *RoomRuntime) afterPlayLocked(userID int64, result *PlayResult) {
	if result.End != nil {
		rt.finishLocked(result.End)
		return
	}

	if result.NeedDeclareOne {
		rt.pushMessageLocked(userID, OutgoingMessage{
			Type: "need_declare_one",
			Seq:  rt.nextSeqLocked(),
			Data: ginH{"cardsLeft": 1},
		})
	}

	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
	rt.scheduleBotTurnLocked()
}

func (rt *RoomRuntime) handlePassLocked(userID int64) error {
	result, err := rt.engine.PassTurn(userID)
	if err != nil {
		return err
	}

	if result.RoundWinner != 0 {
		rt.broadcastMessageLocked(OutgoingMessage{Type: "round_won", Seq: rt.nextSeqLocked(), Data: result})
	}

	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
	rt.scheduleBotTurnLocked()
	return nil
}

func (rt *RoomRuntime) handleDeclareOneLocked(userID int64) error {
	result, err := rt.engine.DeclareOne(userID)
	if err != nil {
		return err
	}

	rt.broadcastMessageLocked(OutgoingMessage{Type: "one_declared", Seq: rt.nextSeqLocked(), Data: result})
	return nil
}

// scheduleBotDeclareLocked lets bots weigh a Sam declaration shortly after
// the deal. The first bot whose hand qualifies declares; everyone else
// waits out the window.
func (rt *RoomRuntime) scheduleBotDeclareLocked() {
	var declarer int64
	for _, id := range rt.engine.playerOrder {
		p := rt.engine.players[id]
		if p.IsBot && NewBot(p.ID, p.Name).ShouldDeclareSam(p.Hand) {
			declarer = id
			break
		}
	}
	if declarer == 0 {
		return
	}

	rt.cancelBotTimerLocked()
	rt.botTimer = time.AfterFunc(botThinkDelay, func() {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		if rt.ended || rt.engine.State() != StateDeclaringSam {
			return
		}
		if err := rt.handleDeclareSamLocked(declarer); err != nil {
			logger.Log.Warn("bot sam declaration rejected",
				zap.String("roomID", rt.roomID),
				zap.Int64("botID", declarer),
				zap.Error(err),
			)
		}
	})
}

func (rt *RoomRuntime) scheduleBotTurnLocked() {
	botID, isBot := rt.engine.BotTurn()
	if !isBot || rt.engine.State() != StatePlaying {
		return
	}

	rt.cancelBotTimerLocked()
	rt.botTimer = time.AfterFunc(botThinkDelay, func() {
		rt.runBotTurn(botID)
	})
}

func (rt *RoomRuntime) runBotTurn(botID int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	// The game may have moved on while the bot was "thinking".
	if rt.ended || rt.engine.State() != StatePlaying || !rt.engine.IsPlayerTurn(botID) {
		return
	}

	p, _ := rt.engine.Player(botID)
	bot := NewBot(botID, p.Name)
	hand := rt.engine.PlayerHand(botID)
	current := rt.engine.CurrentCombo()

	if current != nil && bot.ShouldPass(hand, current) {
		if err := rt.handlePassLocked(botID); err != nil {
			logger.Log.Warn("bot pass rejected",
				zap.String("roomID", rt.roomID),
				zap.Int64("botID", botID),
				zap.Error(err),
			)
		}
		return
	}

	move := bot.DecideMove(hand, current, current == nil)
	if move == nil {
		_ = rt.handlePassLocked(botID)
		return
	}

	if err := rt.handlePlayLocked(botID, move); err != nil {
		logger.Log.Warn("bot play rejected",
			zap.String("roomID", rt.roomID),
			zap.Int64("botID", botID),
			zap.Error(err),
		)
		// Fall back to passing so the table never stalls on a bot.
		_ = rt.handlePassLocked(botID)
	}
}

func (rt *RoomRuntime) onTurnTimeout() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.ended || rt.engine.State() != StatePlaying {
		return
	}

	current := rt.engine.CurrentPlayerID()
	logger.Log.Warn("turn timeout",
		zap.String("roomID", rt.roomID),
		zap.Int64("playerID", current),
	)

	// A combo on the table means passing is legal; an open table forces
	// the lowest single out instead.
	if rt.engine.CurrentCombo() != nil {
		if err := rt.handlePassLocked(current); err == nil {
			return
		}
	}

	hand := rt.engine.PlayerHand(current)
	if len(hand) == 0 {
		return
	}
	if err := rt.handlePlayLocked(current, []Card{hand[0]}); err != nil {
		logger.Log.Error("timeout auto-play failed",
			zap.String("roomID", rt.roomID),
			zap.Int64("playerID", current),
			zap.Error(err),
		)
	}
}

func (rt *RoomRuntime) onDeclareTimeout() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.ended || rt.engine.State() != StateDeclaringSam {
		return
	}
	rt.beginPlayLocked()
}

func (rt *RoomRuntime) finishLocked(end *EndResult) {
	rt.ended = true
	rt.cancelTurnTimerLocked()
	rt.cancelDeclareTimerLocked()
	rt.cancelBotTimerLocked()

	rt.broadcastStateLocked()
	rt.broadcastMessageLocked(OutgoingMessage{Type: "game_end", Seq: rt.nextSeqLocked(), Data: end})

	logger.Log.Info("game finished",
		zap.String("roomID", rt.roomID),
		zap.Int64("winner", end.Winner),
		zap.String("outcome", string(end.Outcome)),
	)

	if rt.onFinish != nil {
		go rt.onFinish(rt, end)
	}
}

func (rt *RoomRuntime) pushStateLocked(userID int64) {
	rt.pushMessageLocked(userID, OutgoingMessage{
		Type: "state",
		Seq:  rt.nextSeqLocked(),
		Data: rt.exportStateLocked(userID),
	})
}

func (rt *RoomRuntime) broadcastStateLocked() {
	stateSeq := rt.nextSeqLocked()
	for uid, ch := range rt.subscribers {
		msg := OutgoingMessage{
			Type: "state",
			Seq:  stateSeq,
			Data: rt.exportStateLocked(uid),
		}
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", uid), zap.String("roomID", rt.roomID))
		}
	}
}

func (rt *RoomRuntime) broadcastMessageLocked(msg OutgoingMessage) {
	for uid, ch := range rt.subscribers {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", uid), zap.String("roomID", rt.roomID))
		}
	}
}

func (rt *RoomRuntime) pushMessageLocked(userID int64, msg OutgoingMessage) {
	if ch, ok := rt.subscribers[userID]; ok {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", userID), zap.String("roomID", rt.roomID))
		}
	}
}

func (rt *RoomRuntime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}

func (rt *RoomRuntime) exportStateLocked(userID int64) RoomState {
	return RoomState{
		PublicState: rt.engine.PublicState(),
		MyHand:      rt.engine.PlayerHand(userID),
		Countdown:   rt.countdownSecondsLocked(),
		YourTurn:    rt.engine.State() == StatePlaying && rt.engine.IsPlayerTurn(userID),
	}
}

func (rt *RoomRuntime) resetTurnTimerLocked() {
	rt.cancelTurnTimerLocked()
	if rt.engine.State() != StatePlaying {
		return
	}
	d := time.Duration(rt.cfg.TurnSeconds) * time.Second
	rt.turnDeadline = time.Now().Add(d)
	rt.turnTimer = time.AfterFunc(d, rt.onTurnTimeout)
}

func (rt *RoomRuntime) resetDeclareTimerLocked() {
	rt.cancelDeclareTimerLocked()
	d := time.Duration(rt.cfg.DeclareSamSeconds) * time.Second
	rt.turnDeadline = time.Now().Add(d)
	rt.declareTimer = time.AfterFunc(d, rt.onDeclareTimeout)
}

func (rt *RoomRuntime) cancelTurnTimerLocked() {
	if rt.turnTimer != nil {
		rt.turnTimer.Stop()
		rt.turnTimer = nil
	}
}

func (rt *RoomRuntime) cancelDeclareTimerLocked() {
	if rt.declareTimer != nil {
		rt.declareTimer.Stop()
		rt.declareTimer = nil
	}
}

func (rt *RoomRuntime) cancelBotTimerLocked() {
	if rt.botTimer != nil {
		rt.botTimer.Stop()
		rt.botTimer = nil
	}
}

func (rt *RoomRuntime) countdownSecondsLocked() int {
	if rt.turnDeadline.IsZero() {
		return 0
	}
	diff := time.Until(rt.turnDeadline)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Second)
}

// ginH is a tiny helper to avoid importing gin in this file.
type ginH map[string]interface{}
