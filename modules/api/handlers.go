package api

import (
	"errors"

	chat "github.com/example/chat-relay-demo/domain/chat"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := m.app.Group("/api/v1")

	// Room management
	api.Get("/rooms", m.listRooms)
	api.Post("/rooms", m.createRoom)
	api.Post("/rooms/join", m.joinRoomCheck)
	api.Put("/rooms/:id/password", m.updatePassword)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.relay.Hub().ConnectionCount(),
			"active_rooms":      m.relay.Hub().RoomCount(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.directory.ListRooms(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}

	response := RoomListResponse{
		Rooms: make([]RoomResponse, 0, len(rooms)),
	}
	for _, room := range rooms {
		response.Rooms = append(response.Rooms, RoomResponse{
			ID:          room.ID,
			Name:        room.Name,
			HasPassword: room.HasPassword,
			CreatedAt:   room.CreatedAt,
			Members:     room.MemberCount,
		})
	}

	return c.JSON(response)
}

// createRoom handles POST /api/v1/rooms.
func (m *APIModule) createRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	room, err := m.directory.CreateRoom(c.UserContext(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, chat.ErrRoomNameEmpty) || errors.Is(err, chat.ErrRoomNameTooLong) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create room",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(RoomResponse{
		ID:          room.ID,
		Name:        room.Name,
		HasPassword: room.HasPassword(),
		CreatedAt:   room.CreatedAt,
	})
}

// joinRoomCheck handles POST /api/v1/rooms/join. It validates credentials
// without joining, so clients can fail fast before the WebSocket handshake.
func (m *APIModule) joinRoomCheck(c *fiber.Ctx) error {
	var req JoinRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	room, err := m.relay.ValidateJoin(c.UserContext(), req.RoomID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrRoomNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Room not found",
			})
		case errors.Is(err, chat.ErrPasswordRequired):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "password_required",
				Message: err.Error(),
			})
		case errors.Is(err, chat.ErrWrongPassword):
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "wrong_password",
				Message: err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error:   "join_check_failed",
				Message: "Failed to validate join",
			})
		}
	}

	return c.JSON(RoomResponse{
		ID:          room.ID,
		Name:        room.Name,
		HasPassword: room.HasPassword(),
		CreatedAt:   room.CreatedAt,
		Members:     m.relay.Hub().MemberCount(room.ID),
	})
}

// updatePassword handles PUT /api/v1/rooms/:id/password.
func (m *APIModule) updatePassword(c *fiber.Ctx) error {
	var req UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	err := m.directory.UpdatePassword(c.UserContext(), c.Params("id"), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrRoomNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Room not found",
			})
		case errors.Is(err, chat.ErrPasswordEmpty):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error:   "update_failed",
				Message: "Failed to update password",
			})
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}
