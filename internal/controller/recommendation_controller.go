package controller

import (
	"ai-bookrec-be/internal/pkg/serverutils"
	"ai-bookrec-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRecommendationController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type recommendationController struct {
	recommendationService service.IRecommendationService
}

func NewRecommendationController(recommendationService service.IRecommendationService) IRecommendationController {
	return &recommendationController{
		recommendationService: recommendationService,
	}
}

func (c *recommendationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/recommendation/v1")
	h.Get(":session_id/recommendations", c.Generate)
	h.Get(":session_id/recommendations/history", c.History)
}

func (c *recommendationController) Generate(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("session_id")

	res, err := c.recommendationService.Generate(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate recommendations", res))
}

func (c *recommendationController) History(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("session_id")

	res, err := c.recommendationService.History(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get recommendation history", res))
}
