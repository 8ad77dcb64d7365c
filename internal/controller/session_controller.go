package controller

import (
	"interview-assist-be/internal/dto"
	"interview-assist-be/internal/pkg/serverutils"
	"interview-assist-be/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	SelectTemplate(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Transcripts(ctx *fiber.Ctx) error
}

type sessionController struct {
	orchestrator *pipeline.Orchestrator
}

func NewSessionController(orchestrator *pipeline.Orchestrator) ISessionController {
	return &sessionController{orchestrator: orchestrator}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Post("", c.Create)
	h.Post(":id/template", c.SelectTemplate)
	h.Get(":id/status", c.Status)
	h.Get(":id/stats", c.Stats)
	h.Post(":id/reset", c.Reset)
	h.Get(":id/transcripts", c.Transcripts)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	sessionID := c.orchestrator.CreateSession()
	return ctx.JSON(serverutils.SuccessResponse("Success create session", dto.CreateSessionResponse{SessionID: sessionID}))
}

func (c *sessionController) SelectTemplate(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	var req dto.SelectTemplateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	tpl, err := c.orchestrator.SelectTemplate(sessionID, req.TemplateID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select template", tpl))
}

func (c *sessionController) Status(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")
	return ctx.JSON(serverutils.SuccessResponse("Success get session status", c.orchestrator.GetStatus(sessionID)))
}

func (c *sessionController) Stats(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")
	return ctx.JSON(serverutils.SuccessResponse("Success get session stats", c.orchestrator.GetSessionStats(sessionID)))
}

func (c *sessionController) Reset(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")
	c.orchestrator.ResetSession(sessionID)
	return ctx.JSON(serverutils.SuccessResponse("Success reset session", nil))
}

// Transcripts re-runs speech-to-text over every stored segment of the
// session and returns the results in sequence order.
func (c *sessionController) Transcripts(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	results, err := c.orchestrator.TranscribeStored(ctx.Context(), sessionID)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	out := make([]dto.TranscriptResult, 0, len(results))
	for _, res := range results {
		item := dto.TranscriptResult{Sequence: res.Sequence}
		if res.Err != nil {
			item.Error = res.Err.Error()
		} else {
			item.Text = res.Transcription.Text
			item.Duration = res.Transcription.DurationSeconds
		}
		out = append(out, item)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success transcribe session", out))
}
