package middleware

import (
	"medmonics/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateGenerationID validates the :specialty and :name path parameters and stores the
// joined id for handlers.
func (vm *ValidationMiddleware) ValidateGenerationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		specialty := c.Params("specialty")
		name := c.Params("name")

		if errors := vm.validator.ValidateGenerationID(specialty, name); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		c.Locals("validated_generation_id", specialty+"/"+name)
		return c.Next()
	}
}

// ValidateJobQuery validates the optional job query parameter.
func (vm *ValidationMiddleware) ValidateJobQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		job := c.Query("job")

		if errors := vm.validator.ValidateJobName(job); len(errors) > 0 {
			return errors
		}

		c.Locals("validated_job_name", job)
		return c.Next()
	}
}
