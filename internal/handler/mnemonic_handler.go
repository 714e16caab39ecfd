package handler

import (
	"net/http"

	"medmonics/internal/domain"
	"medmonics/internal/dto"
	"medmonics/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MnemonicHandler serves the interactive pipeline and saved generations.
type MnemonicHandler struct {
	service   domain.MnemonicService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewMnemonicHandler creates a new MnemonicHandler instance
func NewMnemonicHandler(service domain.MnemonicService, logger *zap.Logger) *MnemonicHandler {
	return &MnemonicHandler{
		service:   service,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// Create godoc
// @Summary Generate a mnemonic
// @Description Runs mnemonic, visual prompt, image, bounding box and quiz generation
// @Tags mnemonics
// @Accept json
// @Produce json
// @Param request body dto.CreateMnemonicRequest true "Topic and options"
// @Security ApiKeyAuth
// @Success 200 {object} dto.GenerationResponse "Generated without saving"
// @Success 201 {object} dto.GenerationResponse "Generated and saved"
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /mnemonics [post]
func (h *MnemonicHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateMnemonicRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("request body is not valid JSON")
	}
	if errs := h.validator.ValidateCreateMnemonicRequest(&req); len(errs) > 0 {
		return errs
	}

	gen, summary, err := h.service.Create(c.UserContext(), req.Input(), req.Specialty, req.ShouldSave())
	if err != nil {
		return err
	}

	id := ""
	status := http.StatusOK
	if summary != nil {
		id = summary.ID
		status = http.StatusCreated
	}
	h.logger.Info("Mnemonic generated",
		zap.String("topic", gen.Record.Topic),
		zap.String("id", id),
		zap.Bool("fallback_image", gen.Image.Fallback),
	)
	return c.Status(status).JSON(dto.NewGenerationResponse(id, gen))
}

// List godoc
// @Summary List saved generations
// @Tags generations
// @Produce json
// @Param specialty query string false "Specialty filter"
// @Success 200 {object} dto.GenerationListResponse
// @Router /generations [get]
func (h *MnemonicHandler) List(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), c.Query("specialty"))
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.GenerationSummary{}
	}
	return c.JSON(dto.GenerationListResponse{Items: items, Total: len(items)})
}

// Get godoc
// @Summary Load a saved generation
// @Tags generations
// @Produce json
// @Param specialty path string true "Specialty folder"
// @Param name path string true "Generation folder"
// @Success 200 {object} dto.GenerationResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /generations/{specialty}/{name} [get]
func (h *MnemonicHandler) Get(c *fiber.Ctx) error {
	id, _ := c.Locals("validated_generation_id").(string)

	gen, err := h.service.Load(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewGenerationResponse(id, gen))
}

// Image godoc
// @Summary Download the image of a saved generation
// @Tags generations
// @Produce png
// @Param specialty path string true "Specialty folder"
// @Param name path string true "Generation folder"
// @Success 200 {file} binary
// @Failure 404 {object} middleware.ErrorResponse
// @Router /generations/{specialty}/{name}/image [get]
func (h *MnemonicHandler) Image(c *fiber.Ctx) error {
	id, _ := c.Locals("validated_generation_id").(string)

	data, err := h.service.LoadImage(c.UserContext(), id)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(data))
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(data)
}
