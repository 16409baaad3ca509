package controller

import (
	"context"

	"market-assist-be/internal/config"
	"market-assist-be/internal/dto"
	"market-assist-be/internal/entity"
	"market-assist-be/internal/pkg/logger"
	"market-assist-be/internal/pkg/serverutils"
	"market-assist-be/internal/service"
	internalWS "market-assist-be/internal/websocket"
	"market-assist-be/pkg/cache"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type assistantController struct {
	hub            *internalWS.Hub
	deps           internalWS.HandlerDeps
	sessionService service.ISessionService
	cacheService   cache.Service
	db             *gorm.DB
	cfg            *config.Config
	logger         logger.ILogger
}

func NewAssistantController(
	hub *internalWS.Hub,
	deps internalWS.HandlerDeps,
	sessionService service.ISessionService,
	cacheService cache.Service,
	db *gorm.DB,
	cfg *config.Config,
	log logger.ILogger,
) IAssistantController {
	return &assistantController{
		hub:            hub,
		deps:           deps,
		sessionService: sessionService,
		cacheService:   cacheService,
		db:             db,
		cfg:            cfg,
		logger:         log,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Get("/ws", c.ServeWs)
	h.Get("/sessions", serverutils.JwtMiddleware, c.ListSessions)
}

// ServeWs authenticates the handshake and upgrades to the assistant protocol.
// Anonymous visitors are allowed; an invalid token is not.
func (c *assistantController) ServeWs(ctx *fiber.Ctx) error {
	owner, err := serverutils.ResolveOwner(ctx, c.cfg.App.JWTSecret)
	if err != nil {
		c.logger.Warn("AssistantController", "Rejected WS handshake", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("AssistantController", "Starting assistant session", map[string]interface{}{"owner": owner.String()})
			internalWS.ServeWs(context.Background(), c.hub, c.deps, conn, owner)
			c.logger.Info("AssistantController", "Assistant session ended", map[string]interface{}{"owner": owner.String()})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}

// ListSessions returns the caller's open conversations, for resuming from
// another device.
func (c *assistantController) ListSessions(ctx *fiber.Ctx) error {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	sessions, err := c.sessionService.ListActive(ctx.Context(), entity.NewAuthenticatedOwner(userId))
	if err != nil {
		return err
	}

	res := make([]dto.SessionSummaryResponse, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, dto.SessionSummaryResponse{
			Id:                 s.Id,
			Context:            s.Context,
			SatisfactionRating: s.SatisfactionRating,
			CreatedAt:          s.CreatedAt,
			UpdatedAt:          s.UpdatedAt,
		})
	}
	return ctx.JSON(res)
}

func (c *assistantController) Health(ctx *fiber.Ctx) error {
	res := dto.HealthResponse{Status: "ok", Database: "ok", Cache: "ok"}

	if sqlDB, err := c.db.DB(); err != nil || sqlDB.PingContext(ctx.Context()) != nil {
		res.Status = "degraded"
		res.Database = "unreachable"
	}
	if _, _, err := c.cacheService.Get(ctx.Context(), "health:probe"); err != nil {
		res.Status = "degraded"
		res.Cache = "unreachable"
	}

	status := fiber.StatusOK
	if res.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return ctx.Status(status).JSON(res)
}
