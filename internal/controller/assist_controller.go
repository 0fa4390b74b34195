package controller

import (
	"shopassist-be/internal/dto"
	"shopassist-be/internal/pkg/serverutils"
	"shopassist-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAssistController interface {
	RegisterRoutes(r fiber.Router)
	SendTurn(ctx *fiber.Ctx) error
	ShowState(ctx *fiber.Ctx) error
	ResetState(ctx *fiber.Ctx) error
}

type assistController struct {
	assistService service.IAssistService
}

func NewAssistController(assistService service.IAssistService) IAssistController {
	return &assistController{
		assistService: assistService,
	}
}

func (c *assistController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assist/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("turn", c.SendTurn)
	h.Get("state/:conversation_id", c.ShowState)
	h.Delete("state/:conversation_id", c.ResetState)
}

func (c *assistController) SendTurn(ctx *fiber.Ctx) error {
	var req dto.SendTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistService.SendTurn(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Turn processed", res))
}

func (c *assistController) ShowState(ctx *fiber.Ctx) error {
	conversationID := ctx.Params("conversation_id")

	res, err := c.assistService.GetState(ctx.Context(), conversationID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Conversation state", res))
}

func (c *assistController) ResetState(ctx *fiber.Ctx) error {
	conversationID := ctx.Params("conversation_id")

	if err := c.assistService.ResetState(ctx.Context(), conversationID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Conversation reset", nil))
}
