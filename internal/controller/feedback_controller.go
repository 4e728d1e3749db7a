package controller

import (
	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/pkg/serverutils"
	"ai-bookrec-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFeedbackController interface {
	RegisterRoutes(r fiber.Router)
	Submit(ctx *fiber.Ctx) error
}

type feedbackController struct {
	feedbackService service.IFeedbackService
}

func NewFeedbackController(feedbackService service.IFeedbackService) IFeedbackController {
	return &feedbackController{
		feedbackService: feedbackService,
	}
}

func (c *feedbackController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/feedback/v1")
	h.Post(":recommendation_id/feedback", c.Submit)
}

func (c *feedbackController) Submit(ctx *fiber.Ctx) error {
	recommendationId := ctx.Params("recommendation_id")

	var req dto.SubmitFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.feedbackService.Submit(ctx.Context(), recommendationId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit feedback", res))
}
