package handler

import (
	"strings"

	"medmonics/internal/domain"
	"medmonics/internal/dto"
	"medmonics/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BatchHandler exposes the staging, submission and retrieval workflow.
type BatchHandler struct {
	service   domain.BatchService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewBatchHandler creates a new BatchHandler instance
func NewBatchHandler(service domain.BatchService, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		service:   service,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// Stage godoc
// @Summary Stage batch records
// @Description Breaks a topic down (unless inputs are given) and runs the text stages for each item
// @Tags batch
// @Accept json
// @Produce json
// @Param request body dto.StageRequest true "Topic or inputs"
// @Success 200 {object} dto.StageResponse
// @Security ApiKeyAuth
// @Failure 401 {object} middleware.ErrorResponse
// @Router /batch/stage [post]
func (h *BatchHandler) Stage(c *fiber.Ctx) error {
	var req dto.StageRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("request body is not valid JSON")
	}
	if errs := h.validator.ValidateStageRequest(&req); len(errs) > 0 {
		return errs
	}

	ctx := c.UserContext()
	inputs := req.Inputs
	if len(inputs) == 0 {
		var err error
		inputs, err = h.service.Breakdown(ctx, strings.TrimSpace(req.Topic), nil, req.Language)
		if err != nil {
			return err
		}
	}

	records, err := h.service.Stage(ctx, inputs, domain.StageOptions{
		Language:    req.Language,
		Theme:       req.Theme,
		VisualStyle: req.VisualStyle,
		Specialty:   req.Specialty,
	})
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return c.JSON(dto.StageResponse{Staged: len(records), IDs: ids})
}

// Submit godoc
// @Summary Submit the staged records as one batch image job
// @Tags batch
// @Produce json
// @Success 202 {object} dto.BatchJobResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Failure 401 {object} middleware.ErrorResponse
// @Router /batch/submit [post]
func (h *BatchHandler) Submit(c *fiber.Ctx) error {
	handle, err := h.service.Submit(c.UserContext())
	if err != nil {
		return err
	}
	h.logger.Info("Batch job submitted", zap.String("job_name", handle.Name), zap.Int("records", handle.RecordCount))
	return c.Status(fiber.StatusAccepted).JSON(dto.BatchJobResponse{
		Name:        handle.Name,
		Status:      string(handle.Status),
		SubmittedAt: handle.SubmittedAt,
		RecordCount: handle.RecordCount,
	})
}

// Status godoc
// @Summary Poll a batch job
// @Tags batch
// @Produce json
// @Param job query string false "Job name; defaults to the last submitted job"
// @Success 200 {object} domain.BatchJobSnapshot
// @Router /batch/status [get]
func (h *BatchHandler) Status(c *fiber.Ctx) error {
	job, _ := c.Locals("validated_job_name").(string)

	snapshot, err := h.service.Status(c.UserContext(), job)
	if err != nil {
		return err
	}
	return c.JSON(snapshot)
}

// Retrieve godoc
// @Summary Retrieve and save the results of a batch job
// @Tags batch
// @Accept json
// @Produce json
// @Param request body dto.RetrieveRequest false "Job name and mode"
// @Success 200 {object} domain.RetrieveReport
// @Failure 409 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Failure 401 {object} middleware.ErrorResponse
// @Router /batch/retrieve [post]
func (h *BatchHandler) Retrieve(c *fiber.Ctx) error {
	var req dto.RetrieveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("request body is not valid JSON")
		}
	}
	if errs := h.validator.ValidateJobName(req.JobName); len(errs) > 0 {
		return errs
	}

	report, err := h.service.Retrieve(c.UserContext(), domain.RetrieveOptions{
		JobName:    req.JobName,
		StatusOnly: req.StatusOnly,
	})
	if err != nil {
		return err
	}
	return c.JSON(report)
}
