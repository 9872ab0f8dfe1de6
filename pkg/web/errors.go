package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/braid-run/braid/pkg/persistence"
	"github.com/braid-run/braid/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps application errors onto problem+json responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.Is(err, persistence.ErrWorkflowNotFound):
		return notFound(c, "workflow not found")

	case errors.Is(err, persistence.ErrWorkflowNotPublished):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("workflow_not_published").
			WithDetail("workflow is not published")

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.Is(err, persistence.ErrExecutionNotFound):
		return notFound(c, "execution not found")

	case services.IsCredentialNotFound(err):
		return notFound(c, "credential not found")

	default:
		return internalError(c, err)
	}
}
