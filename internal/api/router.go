package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"samloc-service/internal/middleware"
	"samloc-service/internal/service"
	roomSvc "samloc-service/internal/service/room"
	userSvc "samloc-service/internal/service/user"
	"samloc-service/internal/ws"
	appErr "samloc-service/pkg/errors"
	"samloc-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Room, services.Game)

	r.GET("/ping", func(c *gin.Context) {
		rooms, players := services.Room.Counts()
		response.Success(c, gin.H{
			"message": "pong",
			"rooms":   rooms,
			"players": players,
		})
	})

	v1 := r.Group("/samloc/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/guest", handler.GuestLogin)
		}

		userGroup := v1.Group("/user")
		userGroup.Use(middleware.AuthRequired())
		{
			userGroup.GET("/profile", handler.GetProfile)
			userGroup.PUT("/profile", handler.UpdateProfile)
			userGroup.GET("/history", handler.GetHistory)
		}

		walletGroup := v1.Group("/wallet")
		walletGroup.Use(middleware.AuthRequired())
		{
			walletGroup.GET("", handler.GetWallet)
			walletGroup.GET("/ledger", handler.GetLedger)
		}

		v1.GET("/leaderboard", handler.GetLeaderboard)

		roomGroup := v1.Group("/rooms")
		roomGroup.Use(middleware.AuthRequired())
		{
			roomGroup.GET("", handler.ListRooms)
			roomGroup.POST("", handler.CreateRoom)
			roomGroup.POST("/join", handler.JoinRoom)
			roomGroup.GET("/:id", handler.GetRoom)
			roomGroup.POST("/:id/leave", handler.LeaveRoom)
			roomGroup.POST("/:id/bots", handler.AddBot)
		}
	}

	r.GET("/ws/room/:roomId", wsHandler.HandleRoomWS)
}

type guestLoginBody struct {
	Name   string `json:"name" binding:"required"`
	Avatar string `json:"avatar"`
}

type updateProfileBody struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

type createRoomBody struct {
	Name       string `json:"name"`
	Type       string `json:"type" binding:"omitempty,oneof=public private"`
	Password   string `json:"password"`
	MaxPlayers int    `json:"maxPlayers"`
	Bet        int64  `json:"betAmount" binding:"min=0"`
}

type joinRoomBody struct {
	RoomID   string `json:"roomId"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (h *Handler) GuestLogin(c *gin.Context) {
	var body guestLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Auth.GuestLogin(c.Request.Context(), body.Name, body.Avatar)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrInvalidName) {
			status = http.StatusBadRequest
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}
	profile, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}

	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.services.User.UpdateProfile(c.Request.Context(), userID, userSvc.UpdateProfileRequest{
		Name:   body.Name,
		Avatar: body.Avatar,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrInvalidName) {
			status = http.StatusBadRequest
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, updated)
}

func (h *Handler) GetHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}

	limit, err := parsePositiveIntQuery(c, "limit", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.services.User.History(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"games": records})
}

func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}
	wallet, err := h.services.Wallet.GetWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"wallet": wallet})
}

func (h *Handler) GetLedger(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}

	limit, err := parsePositiveIntQuery(c, "limit", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	logs, err := h.services.Wallet.Ledger(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"entries": logs})
}

func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, err := parsePositiveIntQuery(c, "limit", 10)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.services.Leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"entries": entries})
}

func (h *Handler) ListRooms(c *gin.Context) {
	response.Success(c, gin.H{"rooms": h.services.Room.List()})
}

func (h *Handler) GetRoom(c *gin.Context) {
	view, err := h.services.Room.Get(c.Param("id"))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Success(c, gin.H{"room": view})
}

func (h *Handler) CreateRoom(c *gin.Context) {
	member, ok := h.memberFromContext(c)
	if !ok {
		return
	}

	var body createRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.services.Room.Create(c.Request.Context(), member, roomSvc.CreateRequest{
		Name:       body.Name,
		Type:       body.Type,
		Password:   body.Password,
		MaxPlayers: body.MaxPlayers,
		Bet:        body.Bet,
	})
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Success(c, gin.H{"room": view})
}

func (h *Handler) JoinRoom(c *gin.Context) {
	member, ok := h.memberFromContext(c)
	if !ok {
		return
	}

	var body joinRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	roomID := strings.TrimSpace(body.RoomID)
	if roomID == "" {
		if strings.TrimSpace(body.Code) == "" {
			response.Error(c, http.StatusBadRequest, "roomId or code is required")
			return
		}
		resolved, err := h.services.Room.Resolve(body.Code)
		if err != nil {
			h.handleRoomError(c, err)
			return
		}
		roomID = resolved
	}

	view, err := h.services.Room.Join(roomID, member, body.Password)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Success(c, gin.H{"room": view})
}

func (h *Handler) LeaveRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}

	if err := h.services.Room.Leave(c.Param("id"), userID); err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "left room")
}

func (h *Handler) AddBot(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}

	view, err := h.services.Room.AddBot(c.Param("id"), userID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Success(c, gin.H{"room": view})
}

// memberFromContext resolves the authenticated user into a room member
// with their current display name.
func (h *Handler) memberFromContext(c *gin.Context) (roomSvc.Member, bool) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return roomSvc.Member{}, false
	}

	profile, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrUserNotFound) {
			status = http.StatusUnauthorized
		}
		response.Error(c, status, err.Error())
		return roomSvc.Member{}, false
	}

	return roomSvc.Member{ID: profile.ID, Name: profile.Name}, true
}

func (h *Handler) handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrRoomNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrRoomFull),
		errors.Is(err, appErr.ErrAlreadyInRoom),
		errors.Is(err, appErr.ErrGameInProgress),
		errors.Is(err, appErr.ErrNotEnoughPlayers),
		errors.Is(err, appErr.ErrBotsDisabled):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErr.ErrWrongPassword):
		response.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, appErr.ErrNotHost):
		response.Error(c, http.StatusForbidden, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return parsed, nil
}

func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
