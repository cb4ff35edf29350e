package room

import (
	"context"
	"strings"
	"sync"
	"time"

	"samloc-service/internal/config"
	"samloc-service/internal/service/game"
	appErr "samloc-service/pkg/errors"
	"samloc-service/pkg/logger"
	"samloc-service/pkg/utils/random"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	TypePublic  = "public"
	TypePrivate = "private"

	StatusWaiting = "waiting"
	StatusPlaying = "playing"

	codeLength  = 6
	codeTTL     = 24 * time.Hour
	codeKeyPref = "samloc:roomcode:"
)

var botNames = []string{"Bot Cao Thủ", "Bot Siêu Việt", "Bot Phàm Nhân", "Bot Thiên Tài"}

type Member struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot,omitempty"`
}

// Room is registry state only; live game state belongs to the runtime.
type Room struct {
	ID           string
	Code         string
	Name         string
	Type         string
	passwordHash []byte
	HostID       int64
	Members      []Member
	MaxPlayers   int
	Bet          int64
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View is the JSON-safe projection of a room.
type View struct {
	ID         string   `json:"id"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	HostID     int64    `json:"hostId"`
	Members    []Member `json:"players"`
	MaxPlayers int      `json:"maxPlayers"`
	Bet        int64    `json:"betAmount"`
	Status     string   `json:"status"`
}

type CreateRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Password   string `json:"password"`
	MaxPlayers int    `json:"maxPlayers"`
	Bet        int64  `json:"betAmount"`
}

// Service is the in-memory room registry. Rooms are transient lobby state;
// only finished games are persisted, so a process restart simply empties
// the lobby.
type Service struct {
	cfg config.GameConfig
	rdb *redis.Client

	mu     sync.Mutex
	rooms  map[string]*Room
	byCode map[string]string
	botSeq int64

	onClose func(roomID string)
}

func NewService(cfg config.GameConfig, rdb *redis.Client) *Service {
	return &Service{
		cfg:    cfg,
		rdb:    rdb,
		rooms:  make(map[string]*Room),
		byCode: make(map[string]string),
	}
}

// SetOnClose registers the hook run after a room is removed, used to drop
// the room's runtime.
func (s *Service) SetOnClose(fn func(roomID string)) {
	s.onClose = fn
}

func (s *Service) Create(ctx context.Context, host Member, req CreateRequest) (*View, error) {
	roomType := req.Type
	if roomType != TypePrivate {
		roomType = TypePublic
	}

	var hash []byte
	if roomType == TypePrivate {
		if strings.TrimSpace(req.Password) == "" {
			return nil, appErr.ErrWrongPassword
		}
		h, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	maxPlayers := req.MaxPlayers
	if maxPlayers < s.cfg.MinPlayers || maxPlayers > s.cfg.MaxPlayers {
		maxPlayers = s.cfg.MaxPlayers
	}

	bet := req.Bet
	if bet < 0 {
		bet = 0
	}
	if bet > 0 && !s.cfg.Money.Enabled {
		return nil, appErr.ErrMoneyDisabled
	}

	id := uuid.NewString()
	code, err := s.reserveCode(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Phòng " + code
	}

	now := time.Now()
	room := &Room{
		ID:           id,
		Code:         code,
		Name:         name,
		Type:         roomType,
		passwordHash: hash,
		HostID:       host.ID,
		Members:      []Member{host},
		MaxPlayers:   maxPlayers,
		Bet:          bet,
		Status:       StatusWaiting,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	s.rooms[id] = room
	s.byCode[code] = id
	s.mu.Unlock()

	logger.Log.Info("room created",
		zap.String("roomID", id),
		zap.String("code", code),
		zap.Int64("hostID", host.ID),
	)
	return room.view(), nil
}

// reserveCode picks a join code and claims it in Redis so that two nodes
// never hand out the same one. Without Redis the in-process map is the only
// arbiter.
func (s *Service) reserveCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := random.Code(codeLength)

		s.mu.Lock()
		_, taken := s.byCode[code]
		s.mu.Unlock()
		if taken {
			continue
		}

		if s.rdb == nil {
			return code, nil
		}
		ok, err := s.rdb.SetNX(ctx, codeKeyPref+code, 1, codeTTL).Result()
		if err != nil {
			logger.Log.Warn("room code reservation failed", zap.Error(err))
			return code, nil
		}
		if ok {
			return code, nil
		}
	}
	return "", appErr.ErrRoomNotFound
}

// Resolve maps a join code to a room ID.
func (s *Service) Resolve(code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return "", appErr.ErrRoomNotFound
	}
	return id, nil
}

func (s *Service) Join(roomID string, player Member, password string) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, appErr.ErrRoomNotFound
	}
	if room.Status == StatusPlaying {
		return nil, appErr.ErrGameInProgress
	}
	if len(room.Members) >= room.MaxPlayers {
		return nil, appErr.ErrRoomFull
	}
	if room.Type == TypePrivate {
		if bcrypt.CompareHashAndPassword(room.passwordHash, []byte(password)) != nil {
			return nil, appErr.ErrWrongPassword
		}
	}
	for _, m := range room.Members {
		if m.ID == player.ID {
			return nil, appErr.ErrAlreadyInRoom
		}
	}

	room.Members = append(room.Members, player)
	room.UpdatedAt = time.Now()
	return room.view(), nil
}

// Leave removes a player. The host seat passes to the first remaining
// human; a room with no humans left is closed.
func (s *Service) Leave(roomID string, playerID int64) error {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return appErr.ErrRoomNotFound
	}

	kept := room.Members[:0]
	for _, m := range room.Members {
		if m.ID != playerID {
			kept = append(kept, m)
		}
	}
	room.Members = kept
	room.UpdatedAt = time.Now()

	humans := 0
	for _, m := range room.Members {
		if !m.IsBot {
			humans++
		}
	}

	if humans == 0 {
		s.removeLocked(room)
		s.mu.Unlock()
		s.afterClose(room)
		return nil
	}

	if room.HostID == playerID {
		for _, m := range room.Members {
			if !m.IsBot {
				room.HostID = m.ID
				break
			}
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) AddBot(roomID string, requesterID int64) (*View, error) {
	if !s.cfg.BotsEnabled {
		return nil, appErr.ErrBotsDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, appErr.ErrRoomNotFound
	}
	if room.HostID != requesterID {
		return nil, appErr.ErrNotHost
	}
	if room.Status == StatusPlaying {
		return nil, appErr.ErrGameInProgress
	}
	if len(room.Members) >= room.MaxPlayers {
		return nil, appErr.ErrRoomFull
	}

	s.botSeq++
	bot := Member{
		ID:    -s.botSeq,
		Name:  botNames[len(room.Members)%len(botNames)],
		IsBot: true,
	}
	room.Members = append(room.Members, bot)
	room.UpdatedAt = time.Now()
	return room.view(), nil
}

func (s *Service) Get(roomID string) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, appErr.ErrRoomNotFound
	}
	return room.view(), nil
}

// List returns every room, private ones included; passwords never leave
// the registry.
func (s *Service) List() []View {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]View, 0, len(s.rooms))
	for _, room := range s.rooms {
		views = append(views, *room.view())
	}
	return views
}

// HasPlayer reports whether a user currently occupies a seat in the room.
func (s *Service) HasPlayer(roomID string, playerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	for _, m := range room.Members {
		if m.ID == playerID {
			return true
		}
	}
	return false
}

// Counts reports rooms and seated humans, for the health endpoint.
func (s *Service) Counts() (rooms int, players int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms = len(s.rooms)
	for _, room := range s.rooms {
		for _, m := range room.Members {
			if !m.IsBot {
				players++
			}
		}
	}
	return rooms, players
}

// Sweep closes waiting rooms idle longer than maxIdle.
func (s *Service) Sweep(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	var closed []*Room
	for _, room := range s.rooms {
		if room.Status == StatusWaiting && room.UpdatedAt.Before(cutoff) {
			s.removeLocked(room)
			closed = append(closed, room)
		}
	}
	s.mu.Unlock()

	for _, room := range closed {
		s.afterClose(room)
	}
}

func (s *Service) removeLocked(room *Room) {
	delete(s.rooms, room.ID)
	delete(s.byCode, room.Code)
}

func (s *Service) afterClose(room *Room) {
	if s.rdb != nil {
		s.rdb.Del(context.Background(), codeKeyPref+room.Code)
	}
	if s.onClose != nil {
		s.onClose(room.ID)
	}
	logger.Log.Info("room closed", zap.String("roomID", room.ID))
}

// RoomInfo, BeginGame and FinishGame let the game service drive the
// registry without a package cycle.

func (s *Service) RoomInfo(roomID string) (*game.RoomInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, appErr.ErrRoomNotFound
	}

	seats := make([]game.Seat, 0, len(room.Members))
	for _, m := range room.Members {
		seats = append(seats, game.Seat{ID: m.ID, Name: m.Name, IsBot: m.IsBot})
	}
	return &game.RoomInfo{
		ID:     room.ID,
		HostID: room.HostID,
		Bet:    room.Bet,
		Seats:  seats,
	}, nil
}

func (s *Service) BeginGame(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return appErr.ErrRoomNotFound
	}
	room.Status = StatusPlaying
	room.UpdatedAt = time.Now()
	return nil
}

func (s *Service) FinishGame(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return appErr.ErrRoomNotFound
	}
	room.Status = StatusWaiting
	room.UpdatedAt = time.Now()
	return nil
}

func (r *Room) view() *View {
	members := make([]Member, len(r.Members))
	copy(members, r.Members)
	return &View{
		ID:         r.ID,
		Code:       r.Code,
		Name:       r.Name,
		Type:       r.Type,
		HostID:     r.HostID,
		Members:    members,
		MaxPlayers: r.MaxPlayers,
		Bet:        r.Bet,
		Status:     r.Status,
	}
}
