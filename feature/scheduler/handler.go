package scheduler

import (
	"errors"
	"strconv"
	"strings"

	"roster-sync/core/logger"
	"roster-sync/feature/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the orchestrator and guild registration over HTTP.
type Handler struct {
	orchestrator *Orchestrator
	store        *store.Store
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(o *Orchestrator, s *store.Store, logger *zap.Logger) *Handler {
	return &Handler{orchestrator: o, store: s, logger: logger}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	sync := app.Group("/sync")
	sync.Get("/status", h.HandleStatus)
	sync.Post("/run", h.HandleRun)
	sync.Post("/abort", h.HandleAbort)

	guilds := app.Group("/guilds")
	guilds.Post("/", h.HandleRegisterGuild)
	guilds.Post("/:id/include", h.HandleIncludeGuild)
	guilds.Put("/:id/ranks/:rank", h.HandleRenameRank)

	app.Post("/characters/:id/reset", h.HandleResetCharacter)
}

type statusResponse struct {
	State      string  `json:"state"`
	LastReport *Report `json:"last_report,omitempty"`
}

// HandleStatus returns the orchestrator state and the last cycle report.
// @Summary Sync status
// @Description Returns the orchestrator state and the report of the last finished cycle.
// @Tags sync
// @Produce json
// @Success 200 {object} statusResponse
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(statusResponse{
		State:      h.orchestrator.State().String(),
		LastReport: h.orchestrator.LastReport(),
	})
}

// HandleRun starts a cycle in the background.
// @Summary Run sync cycle
// @Description Starts a sync cycle in the background.
// @Tags sync
// @Produce json
// @Success 202 {object} map[string]string "Accepted"
// @Failure 409 {object} map[string]string "Already running"
// @Router /sync/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	if !h.orchestrator.Start(c.UserContext()) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": ErrAlreadyRunning.Error(),
		})
	}
	logger.WithRayID(h.logger, c).Info("Sync cycle triggered")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"state": Running.String()})
}

// HandleAbort asks the running cycle to stop.
// @Summary Abort sync cycle
// @Description Asks the running cycle to stop after the item in progress.
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /sync/abort [post]
func (h *Handler) HandleAbort(c *fiber.Ctx) error {
	aborted := h.orchestrator.AbortSync()
	return c.JSON(fiber.Map{"aborted": aborted})
}

type registerRequest struct {
	Region string `json:"region"`
	Realm  string `json:"realm"`
	Name   string `json:"name"`
}

// HandleRegisterGuild starts tracking a guild and queues its first sync.
// @Summary Register guild
// @Description Starts tracking a guild and queues its first sync.
// @Tags guilds
// @Accept json
// @Produce json
// @Param request body registerRequest true "Guild identity"
// @Success 200 {object} map[string]interface{} "Already tracked"
// @Success 201 {object} map[string]interface{} "Registered"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /guilds [post]
func (h *Handler) HandleRegisterGuild(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Region == "" || req.Realm == "" || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "region, realm and name are required"})
	}

	g, created, err := h.store.Guilds.Register(c.UserContext(), req.Region, req.Realm, req.Name)
	if err != nil {
		l.Error("Guild registration failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.orchestrator.Enqueue(c.UserContext(), g.ID); err != nil {
		l.Error("Guild sync enqueue failed", zap.Uint("guild_id", g.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Guild registered", zap.Uint("guild_id", g.ID), zap.Bool("created", created))
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"id":     g.ID,
		"name":   g.Name,
		"realm":  g.Realm,
		"region": g.Region,
		"queued": true,
	})
}

// HandleIncludeGuild clears a guild's exclusion and queues a sync.
// @Summary Include guild
// @Description Clears the exclusion flag of a guild and queues a sync.
// @Tags guilds
// @Param id path int true "Guild ID"
// @Success 204
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /guilds/{id}/include [post]
func (h *Handler) HandleIncludeGuild(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid guild id"})
	}

	ctx := c.UserContext()
	if _, err := h.store.Guilds.FindByID(ctx, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "guild not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.store.Guilds.Include(ctx, uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.orchestrator.Enqueue(ctx, uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type renameRankRequest struct {
	Name string `json:"name"`
}

// HandleRenameRank sets a custom display name for a guild rank. The name
// survives later syncs, including cycles where the rank has no members.
// @Summary Rename rank
// @Description Sets a custom display name for a guild rank.
// @Tags guilds
// @Accept json
// @Param id path int true "Guild ID"
// @Param rank path int true "Rank ID"
// @Param request body renameRankRequest true "New name"
// @Success 204
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /guilds/{id}/ranks/{rank} [put]
func (h *Handler) HandleRenameRank(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid guild id"})
	}
	rank, err := strconv.Atoi(c.Params("rank"))
	if err != nil || rank < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid rank id"})
	}

	var req renameRankRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	if err := h.store.Ranks.Rename(c.UserContext(), uint(id), rank, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "rank not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.logger, c).Info("Rank renamed",
		zap.Uint64("guild_id", id), zap.Int("rank_id", rank), zap.String("name", name))
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleResetCharacter clears a character's failure counter.
// @Summary Reset character failures
// @Description Clears the consecutive update failure counter so the character is selected again.
// @Tags characters
// @Param id path int true "Character ID"
// @Success 204
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /characters/{id}/reset [post]
func (h *Handler) HandleResetCharacter(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid character id"})
	}

	ctx := c.UserContext()
	if _, err := h.store.Characters.FindByID(ctx, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.store.Characters.ResetFailures(ctx, uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
