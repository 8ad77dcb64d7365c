package controller

import (
	"interview-assist-be/internal/pkg/serverutils"
	"interview-assist-be/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Check(ctx *fiber.Ctx) error
}

type healthController struct {
	orchestrator *pipeline.Orchestrator
}

func NewHealthController(orchestrator *pipeline.Orchestrator) IHealthController {
	return &healthController{orchestrator: orchestrator}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/health/v1")
	h.Get("", c.Check)
}

// Check reports provider reachability. The server itself answering is the
// liveness signal; degraded providers are reported, not fatal.
func (c *healthController) Check(ctx *fiber.Ctx) error {
	providers := c.orchestrator.Health(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success health check", providers))
}
