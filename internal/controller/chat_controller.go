package controller

import (
	"strings"

	"ai-docsearch-be/internal/dto"
	"ai-docsearch-be/internal/pkg/serverutils"
	"ai-docsearch-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	ResetSession(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	auth    fiber.Handler
}

// NewChatController mounts the chat routes behind auth.
func NewChatController(service service.IChatService, auth fiber.Handler) IChatController {
	return &chatController{service: service, auth: auth}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	if c.auth != nil {
		h.Use(c.auth)
	}
	h.Post("ask", c.Ask)
	h.Delete("sessions/:id?", c.ResetSession)
}

func (c *chatController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Question = strings.TrimSpace(req.Question)

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

// ResetSession clears one of the caller's sessions. Without an id it
// clears the authenticated user's default session.
func (c *chatController) ResetSession(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	userID := serverutils.UserID(ctx)
	if id == "" && userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Session id is required")
	}

	if err := c.service.ResetSession(ctx.UserContext(), userID, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset session", nil))
}
