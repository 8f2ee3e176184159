package task

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/middleware"
	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
	"github.com/quoteflow/cadence-api/pkg/errors"
	"github.com/quoteflow/cadence-api/pkg/httputil"
)

type Handler struct {
	tasks repository.TaskRepository
}

func NewHandler(tasks repository.TaskRepository) *Handler {
	return &Handler{tasks: tasks}
}

func (h *Handler) ListTasks(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	filters := &model.TaskFilters{OrganizationID: orgID}

	if id := c.Query("quote_id"); id != "" {
		quoteID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid quote ID", nil))
			return
		}
		filters.QuoteID = quoteID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = model.TaskStatus(status)
	}
	if typ := c.Query("type"); typ != "" {
		filters.Type = model.TaskType(typ)
	}

	tasks, err := h.tasks.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, tasks)
}

func (h *Handler) GetTask(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid task ID", nil))
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if task == nil || task.OrganizationID != orgID {
		httputil.RespondWithError(c, errors.NotFound("task", nil))
		return
	}

	httputil.RespondWithSuccess(c, task)
}

// CompleteTask marks a pending task done. Completing an already done task is
// a conflict rather than a silent no-op so double-submits surface to the UI.
func (h *Handler) CompleteTask(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid task ID", nil))
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if task == nil || task.OrganizationID != orgID {
		httputil.RespondWithError(c, errors.NotFound("task", nil))
		return
	}
	if task.Status == model.TaskStatusDone {
		httputil.RespondWithError(c, errors.Conflict("task already completed", nil))
		return
	}

	now := time.Now().UTC()
	if err := h.tasks.Complete(c.Request.Context(), id, now); err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	task.Status = model.TaskStatusDone
	task.CompletedAt = &now
	httputil.RespondWithSuccess(c, task)
}
