package quote

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/middleware"
	"github.com/quoteflow/cadence-api/internal/repository"
	"github.com/quoteflow/cadence-api/pkg/errors"
	"github.com/quoteflow/cadence-api/pkg/httputil"
)

type Handler struct {
	quotes repository.QuoteRepository
	events repository.EventRepository
}

func NewHandler(quotes repository.QuoteRepository, events repository.EventRepository) *Handler {
	return &Handler{quotes: quotes, events: events}
}

func (h *Handler) GetQuote(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid quote ID", nil))
		return
	}

	quote, err := h.quotes.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if quote == nil || quote.OrganizationID != orgID {
		httputil.RespondWithError(c, errors.NotFound("quote", nil))
		return
	}

	httputil.RespondWithSuccess(c, quote)
}

// ListEvents returns the cadence timeline for a quote, terminal and pending
// rows alike, in scheduled order.
func (h *Handler) ListEvents(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid quote ID", nil))
		return
	}

	quote, err := h.quotes.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if quote == nil || quote.OrganizationID != orgID {
		httputil.RespondWithError(c, errors.NotFound("quote", nil))
		return
	}

	events, err := h.events.ListByQuote(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, events)
}
