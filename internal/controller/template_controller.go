package controller

import (
	"errors"

	"interview-assist-be/internal/pkg/serverutils"
	"interview-assist-be/pkg/rubric/template"

	"github.com/gofiber/fiber/v2"
)

type ITemplateController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type templateController struct {
	loader *template.Loader
}

func NewTemplateController(loader *template.Loader) ITemplateController {
	return &templateController{loader: loader}
}

func (c *templateController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/template/v1")
	h.Get("", c.List)
	h.Get(":id", c.Show)
}

func (c *templateController) List(ctx *fiber.Ctx) error {
	ids, err := c.loader.List()
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all templates", ids))
}

func (c *templateController) Show(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	tpl, err := c.loader.Load(id)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Template not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show template", tpl))
}
