package controller

import (
	"os"
	"path/filepath"
	"strings"

	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/pkg/serverutils"
	"ai-bookrec-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	SubmitAnswers(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	GenerateQuestion(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService  service.ISessionService
	questionService service.IQuestionService
	uploadDir       string
}

func NewSessionController(
	sessionService service.ISessionService,
	questionService service.IQuestionService,
	uploadDir string,
) ISessionController {
	return &sessionController{
		sessionService:  sessionService,
		questionService: questionService,
		uploadDir:       uploadDir,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Post("create", c.Create)
	h.Post(":id/answers", c.SubmitAnswers)
	h.Get(":id/status", c.Status)
	h.Post(":id/generate-question", c.GenerateQuestion)
}

// Create accepts multipart form data: a required initial_query field and
// an optional csv_file carrying a Goodreads library export. When a file
// is present it is queued for background ingestion and the response
// status flips to processing_csv.
func (c *sessionController) Create(ctx *fiber.Ctx) error {
	initialQuery := strings.TrimSpace(ctx.FormValue("initial_query"))
	if initialQuery == "" {
		return serverutils.BadRequest("initial_query is required")
	}

	res, err := c.sessionService.Create(ctx.Context(), initialQuery)
	if err != nil {
		return err
	}

	file, err := ctx.FormFile("csv_file")
	if err == nil && file != nil {
		if !strings.EqualFold(filepath.Ext(file.Filename), ".csv") {
			return serverutils.BadRequest("csv_file must be a .csv file")
		}
		if err := os.MkdirAll(c.uploadDir, 0o755); err != nil {
			return err
		}
		dest := filepath.Join(c.uploadDir, res.SessionId+".csv")
		if err := ctx.SaveFile(file, dest); err != nil {
			return err
		}
		if err := c.sessionService.QueueIngest(ctx.Context(), res.SessionId, dest); err != nil {
			return err
		}
		res.Status = "processing_csv"
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) SubmitAnswers(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("id")

	var req dto.SubmitAnswersRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sessionService.SubmitAnswers(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit answers", res))
}

func (c *sessionController) Status(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("id")

	res, err := c.sessionService.Status(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session status", res))
}

func (c *sessionController) GenerateQuestion(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("id")

	var req dto.GenerateQuestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.questionService.GenerateQuestion(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate question", res))
}
