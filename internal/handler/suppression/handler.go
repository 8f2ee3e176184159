package suppression

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/quoteflow/cadence-api/internal/middleware"
	"github.com/quoteflow/cadence-api/internal/service/suppression"
	"github.com/quoteflow/cadence-api/pkg/errors"
	"github.com/quoteflow/cadence-api/pkg/httputil"
)

type Handler struct {
	service  *suppression.Service
	validate *validator.Validate
}

func NewHandler(service *suppression.Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

type suppressRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Reason string `json:"reason" validate:"required,max=255"`
}

func (h *Handler) Suppress(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	var req suppressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	if err := h.service.Suppress(c.Request.Context(), orgID, req.Email, req.Reason); err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"email": req.Email, "suppressed": true})
}

func (h *Handler) Unsuppress(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	email := c.Param("email")
	if err := h.validate.Var(email, "required,email"); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid email", err))
		return
	}

	if err := h.service.Unsuppress(c.Request.Context(), orgID, email); err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"email": email, "suppressed": false})
}

func (h *Handler) List(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	suppressions, err := h.service.List(c.Request.Context(), orgID)
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, suppressions)
}

// Check answers the pre-send question the compose UI asks on every keystroke,
// so it reads through the short-TTL cache instead of the table.
func (h *Handler) Check(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	email := c.Query("email")
	if err := h.validate.Var(email, "required,email"); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid email", err))
		return
	}

	suppressed, err := h.service.IsSuppressedCached(c.Request.Context(), orgID, email)
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"email": email, "suppressed": suppressed})
}
