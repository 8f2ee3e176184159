package cadence

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
	"github.com/quoteflow/cadence-api/internal/service/cadence"
	"github.com/quoteflow/cadence-api/pkg/errors"
	"github.com/quoteflow/cadence-api/pkg/httputil"
)

type Handler struct {
	service *cadence.Service
	events  repository.EventRepository
}

func NewHandler(service *cadence.Service, events repository.EventRepository) *Handler {
	return &Handler{service: service, events: events}
}

type runRequest struct {
	WorkerID string `json:"worker_id"`
}

// Run triggers one processing batch. Exposed for cron schedulers and
// operational reruns; the built-in worker loop calls the service directly.
func (h *Handler) Run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", nil))
		return
	}

	workerID := req.WorkerID
	if workerID == "" {
		host, _ := os.Hostname()
		workerID = fmt.Sprintf("api-%s-%d", host, time.Now().UnixNano())
	}

	result, err := h.service.ProcessDueEvents(c.Request.Context(), workerID)
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid event ID", nil))
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if event == nil {
		httputil.RespondWithError(c, errors.NotFound("event", nil))
		return
	}

	httputil.RespondWithSuccess(c, event)
}

type scheduleRequest struct {
	OrganizationID string `json:"organization_id" binding:"required,uuid"`
	QuoteID        string `json:"quote_id" binding:"required,uuid"`
	Kind           string `json:"kind" binding:"required"`
	ScheduledFor   string `json:"scheduled_for" binding:"required"`
	Priority       string `json:"priority"`
}

// Schedule inserts a single cadence event. Normal scheduling happens when a
// quote is sent; this endpoint covers manual re-scheduling.
func (h *Handler) Schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), nil))
		return
	}

	kind := model.EventKind(req.Kind)
	if !kind.Valid() {
		httputil.RespondWithError(c, errors.BadRequest("invalid event kind", nil))
		return
	}

	scheduledFor, err := time.Parse(time.RFC3339, req.ScheduledFor)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("scheduled_for must be RFC 3339", nil))
		return
	}

	priority := model.EventPriorityLow
	if req.Priority != "" {
		priority = model.EventPriority(req.Priority)
		if priority != model.EventPriorityLow && priority != model.EventPriorityHigh {
			httputil.RespondWithError(c, errors.BadRequest("invalid priority", nil))
			return
		}
	}

	event := &model.CadenceEvent{
		OrganizationID: uuid.MustParse(req.OrganizationID),
		QuoteID:        uuid.MustParse(req.QuoteID),
		Kind:           kind,
		Status:         model.EventStatusScheduled,
		Priority:       priority,
		ScheduledFor:   scheduledFor,
	}
	if err := h.events.Create(c.Request.Context(), event); err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, event)
}
