// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/getreference/notification-engine/internal/common/config"
	"github.com/getreference/notification-engine/internal/common/errors"
	"github.com/getreference/notification-engine/internal/common/logger"
	"github.com/getreference/notification-engine/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// DispatchService is the dispatch surface exposed over HTTP.
type DispatchService interface {
	Dispatch(ctx context.Context, event models.Event) ([]models.ChannelResult, error)
}

// InAppService covers the in-app notification read paths.
type InAppService interface {
	List(ctx context.Context, recipientID string, limit, offset int) ([]models.InAppNotification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	UnreadCount(ctx context.Context, recipientID string) (int, error)
}

// PreferenceService covers the preference settings flow.
type PreferenceService interface {
	Resolve(ctx context.Context, recipientID string) (models.Preferences, error)
	Update(ctx context.Context, recipientID string, prefs models.Preferences) error
}

type Handler struct {
	dispatch DispatchService
	inapp    InAppService
	prefs    PreferenceService
	logger   logger.Logger
}

func NewHandler(dispatch DispatchService, inapp InAppService, prefs PreferenceService, log logger.Logger) *Handler {
	return &Handler{
		dispatch: dispatch,
		inapp:    inapp,
		prefs:    prefs,
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// NewApp builds the fiber application with all routes registered.
func NewApp(h *Handler, srv config.ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "getreference-notification-engine",
		DisableStartupMessage: true,
		ReadTimeout:           config.GetDuration(srv.ReadTimeout),
		WriteTimeout:          config.GetDuration(srv.WriteTimeout),
	})
	app.Use(recover.New())

	app.Get("/healthz", h.Health)

	v1 := app.Group("/v1")
	v1.Post("/notifications/dispatch", h.Dispatch)
	v1.Get("/notifications", h.List)
	v1.Get("/notifications/unread-count", h.UnreadCount)
	v1.Post("/notifications/read-all", h.MarkAllRead)
	v1.Post("/notifications/:id/read", h.MarkRead)
	v1.Get("/preferences/:id", h.GetPreferences)
	v1.Put("/preferences/:id", h.UpdatePreferences)

	return app
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

type dispatchRequest struct {
	RecipientID   string            `json:"recipientId"`
	Kind          string            `json:"kind"`
	Data          map[string]string `json:"data"`
	Channels      []string          `json:"channels"`
	EmailOverride string            `json:"emailOverride"`
}

func (h *Handler) Dispatch(c *fiber.Ctx) error {
	body := c.Body()
	if err := validateDispatchRequest(body); err != nil {
		return badRequest(c, err.Error())
	}

	var req dispatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest(c, "malformed request body")
	}

	channels := make([]models.Channel, 0, len(req.Channels))
	for _, ch := range req.Channels {
		channels = append(channels, models.Channel(ch))
	}

	results, err := h.dispatch.Dispatch(c.Context(), models.Event{
		RecipientID:   req.RecipientID,
		Kind:          models.Kind(req.Kind),
		Data:          req.Data,
		Channels:      channels,
		EmailOverride: req.EmailOverride,
	})
	if err != nil {
		// Only an unknown kind reaches here; the schema enum should have
		// caught it, so treat it as a client error all the same.
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"results": results,
	})
}

func (h *Handler) List(c *fiber.Ctx) error {
	recipientID := c.Query("recipient_id")
	if recipientID == "" {
		return badRequest(c, "recipient_id is required")
	}
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	notifications, err := h.inapp.List(c.Context(), recipientID, limit, offset)
	if err != nil {
		return h.serverError(c, err)
	}
	if notifications == nil {
		notifications = []models.InAppNotification{}
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

func (h *Handler) UnreadCount(c *fiber.Ctx) error {
	recipientID := c.Query("recipient_id")
	if recipientID == "" {
		return badRequest(c, "recipient_id is required")
	}

	count, err := h.inapp.UnreadCount(c.Context(), recipientID)
	if err != nil {
		return h.serverError(c, err)
	}

	return c.JSON(fiber.Map{"unread": count})
}

func (h *Handler) MarkRead(c *fiber.Ctx) error {
	recipientID := c.Query("recipient_id")
	if recipientID == "" {
		return badRequest(c, "recipient_id is required")
	}

	err := h.inapp.MarkRead(c.Context(), c.Params("id"), recipientID)
	if err != nil {
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) && stdErr.Code == errors.ErrCodeNotificationNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": stdErr.Message})
		}
		return h.serverError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	recipientID := c.Query("recipient_id")
	if recipientID == "" {
		return badRequest(c, "recipient_id is required")
	}

	if err := h.inapp.MarkAllRead(c.Context(), recipientID); err != nil {
		return h.serverError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetPreferences(c *fiber.Ctx) error {
	prefs, err := h.prefs.Resolve(c.Context(), c.Params("id"))
	if err != nil {
		return h.serverError(c, err)
	}
	return c.JSON(prefs)
}

func (h *Handler) UpdatePreferences(c *fiber.Ctx) error {
	var prefs models.Preferences
	if err := c.BodyParser(&prefs); err != nil {
		return badRequest(c, "malformed request body")
	}

	if err := h.prefs.Update(c.Context(), c.Params("id"), prefs); err != nil {
		return h.serverError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func (h *Handler) serverError(c *fiber.Ctx, err error) error {
	h.logger.Error("request failed", map[string]interface{}{
		"path":  c.Path(),
		"error": err.Error(),
	})
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
