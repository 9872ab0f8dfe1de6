// Package web exposes the REST surface: workflow management, the three
// trigger entry points, execution history, and masked credential reads.
package web

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/registry"
	"github.com/braid-run/braid/pkg/services"
)

// userIDHeader carries the caller identity. Authentication itself happens
// upstream; an empty header is rejected on endpoints that need an owner.
const userIDHeader = "X-User-ID"

type APIHandlers struct {
	workflows   *services.Workflow
	runner      *services.Runner
	history     *services.History
	credentials *services.Credentials
	registry    *registry.Registry
}

func NewAPIHandlers(
	workflows *services.Workflow,
	runner *services.Runner,
	history *services.History,
	credentials *services.Credentials,
	reg *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflows:   workflows,
		runner:      runner,
		history:     history,
		credentials: credentials,
		registry:    reg,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.workflows.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflows.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	wf, err := h.workflows.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var wf models.Workflow
	if err := c.Bind().JSON(&wf); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	wf.ID = ""
	wf.OwnerID = c.Get(userIDHeader)

	saved, err := h.workflows.Save(c.Context(), &wf)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var wf models.Workflow
	if err := c.Bind().JSON(&wf); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	wf.ID = c.Params("id")

	saved, err := h.workflows.Save(c.Context(), &wf)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) PublishWorkflow(c fiber.Ctx) error {
	wf, err := h.workflows.Publish(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflows.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RunWorkflow executes a workflow synchronously and returns the sealed
// execution, whatever its terminal status.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if userID == "" {
		return badRequest(c, "missing "+userIDHeader+" header")
	}

	exec, err := h.runner.RunManual(c.Context(), c.Params("id"), userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(exec)
}

// Webhook accepts an arbitrary JSON payload and enqueues a webhook job. The
// response is 202: the execution happens on a dispatcher, not in-request.
func (h *APIHandlers) Webhook(c fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if userID == "" {
		return badRequest(c, "missing "+userIDHeader+" header")
	}

	var payload map[string]any
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&payload); err != nil {
			return badRequest(c, "invalid JSON payload: "+err.Error())
		}
	}

	job, err := h.runner.RunWebhook(c.Context(), c.Params("id"), userID, payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	limit := 0

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}

		limit = parsed
	}

	executions, err := h.history.ListByWorkflow(c.Context(), c.Params("id"), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	detail, err := h.history.Detail(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(detail)
}

// GetNodeTypes lists the registered node types with their metadata and
// configuration schemas, for workflow editors.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	types := make([]fiber.Map, 0, len(h.registry.Types()))

	for _, nodeType := range h.registry.Types() {
		factory, _ := h.registry.Factory(nodeType)
		types = append(types, fiber.Map{
			"type":        nodeType,
			"name":        factory.Name(),
			"description": factory.Description(),
			"schema":      factory.Schema(),
		})
	}

	return c.JSON(fiber.Map{"node_types": types})
}

type createCredentialRequest struct {
	Name string                `json:"name"`
	Type models.CredentialType `json:"type"`
	Data map[string]any        `json:"data"`
}

func (h *APIHandlers) CreateCredential(c fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if userID == "" {
		return badRequest(c, "missing "+userIDHeader+" header")
	}

	var req createCredentialRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	row, err := h.credentials.Create(c.Context(), req.Name, req.Type, userID, req.Data)
	if err != nil {
		return handleServiceError(c, err)
	}

	// The row's EncryptedData is json:"-" tagged; only metadata goes out.
	return c.Status(fiber.StatusCreated).JSON(row)
}

func (h *APIHandlers) GetCredential(c fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if userID == "" {
		return badRequest(c, "missing "+userIDHeader+" header")
	}

	masked, err := h.credentials.Get(c.Context(), c.Params("id"), userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(masked)
}

func (h *APIHandlers) GetCredentials(c fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if userID == "" {
		return badRequest(c, "missing "+userIDHeader+" header")
	}

	rows, err := h.credentials.List(c.Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"credentials": rows})
}

func (h *APIHandlers) DeleteCredential(c fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if userID == "" {
		return badRequest(c, "missing "+userIDHeader+" header")
	}

	if err := h.credentials.Delete(c.Context(), c.Params("id"), userID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
