package wizard

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"photogo/internal/domain"
	"photogo/internal/integrations/storefront"
	"photogo/internal/modules/voucher"
	"photogo/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	w := rg.Group("/wizards")
	w.POST("", h.Start)
	w.GET("/:id", h.Get)
	w.DELETE("/:id", h.Cancel)

	w.PUT("/:id/concept", h.SelectConcept)
	w.PATCH("/:id/add-ons", h.SetAddOns)
	w.GET("/:id/dates", h.Dates)
	w.GET("/:id/slots", h.Slots)
	w.PUT("/:id/slot", h.SelectSlot)
	w.PATCH("/:id/customer", h.UpdateCustomer)
	w.PUT("/:id/deposit", h.SetDeposit)
	w.GET("/:id/vouchers", h.Vouchers)
	w.PUT("/:id/voucher", h.ApplyVoucher)
	w.DELETE("/:id/voucher", h.RemoveVoucher)

	w.POST("/:id/next", h.Next)
	w.POST("/:id/back", h.Back)
	w.POST("/:id/submit", h.Submit)
}

func (h *Handler) Start(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	view, err := h.service.Start(requestContext(c), userID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.service.Get(userID, c.Param("id"))
	respond(c, view, err)
}

func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Cancel(userID, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SelectConcept(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req SelectConceptRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.service.SelectConcept(userID, c.Param("id"), req.ConceptID)
	respond(c, view, err)
}

func (h *Handler) SetAddOns(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AddOnsRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.service.SetAddOns(userID, c.Param("id"), req)
	respond(c, view, err)
}

func (h *Handler) Dates(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.service.Dates(requestContext(c), userID, c.Param("id"))
	respond(c, res, err)
}

func (h *Handler) Slots(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.service.Slots(requestContext(c), userID, c.Param("id"), c.Query("date"))
	respond(c, res, err)
}

func (h *Handler) SelectSlot(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req SelectSlotRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.service.SelectSlot(userID, c.Param("id"), req.Date, req.SlotID)
	respond(c, view, err)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.CustomerPatch
	if !bind(c, &req) {
		return
	}
	view, err := h.service.UpdateCustomer(userID, c.Param("id"), req)
	respond(c, view, err)
}

func (h *Handler) SetDeposit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req DepositRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.service.SetDepositPercent(userID, c.Param("id"), req.DepositPercent)
	respond(c, view, err)
}

func (h *Handler) Vouchers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.Vouchers(requestContext(c), userID, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"vouchers": list})
}

func (h *Handler) ApplyVoucher(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req VoucherRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.service.ApplyVoucher(requestContext(c), userID, c.Param("id"), req.Code)
	respond(c, view, err)
}

func (h *Handler) RemoveVoucher(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.service.RemoveVoucher(userID, c.Param("id"))
	respond(c, view, err)
}

func (h *Handler) Next(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.service.Next(requestContext(c), userID, c.Param("id"))
	respond(c, view, err)
}

func (h *Handler) Back(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.service.Back(userID, c.Param("id"))
	respond(c, view, err)
}

func (h *Handler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.service.Submit(requestContext(c), userID, c.Param("id"))
	respond(c, res, err)
}

func currentUser(c *gin.Context) (int64, bool) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return 0, false
	}
	return userID, true
}

// requestContext forwards the caller's token to the storefront.
func requestContext(c *gin.Context) context.Context {
	return storefront.WithAccessToken(c.Request.Context(), c.GetString("access_token"))
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

func respond(c *gin.Context, data any, err error) {
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}

/* ---------- ERROR HANDLING ---------- */

func handleError(c *gin.Context, err error) {
	var verr *ValidationError
	var naErr *voucher.NotApplicableError

	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Some fields are invalid", verr.Fields)
	case errors.As(err, &naErr):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VOUCHER_NOT_APPLICABLE", "Voucher cannot be applied to this booking",
			gin.H{"code": naErr.Code, "reason": naErr.Reason})
	case errors.Is(err, ErrWizardNotFound):
		response.Error(c, http.StatusNotFound, "WIZARD_NOT_FOUND", "Booking wizard not found or expired")
	case errors.Is(err, ErrPackageNotFound):
		response.Error(c, http.StatusNotFound, "PACKAGE_NOT_FOUND", "Service package not found")
	case errors.Is(err, ErrConceptNotFound):
		response.Error(c, http.StatusNotFound, "CONCEPT_NOT_FOUND", "Concept does not belong to this package")
	case errors.Is(err, ErrSlotNotFound):
		response.Error(c, http.StatusNotFound, "SLOT_NOT_FOUND", "Time slot not found, reload the slots")
	case errors.Is(err, voucher.ErrNotFound):
		response.Error(c, http.StatusNotFound, "VOUCHER_NOT_FOUND", "Voucher not found")
	case errors.Is(err, ErrCapacityExceeded):
		response.Error(c, http.StatusConflict, "CAPACITY_EXCEEDED", "The selected time slot is fully booked")
	case errors.Is(err, ErrWrongStep), errors.Is(err, ErrCannotGoBack):
		response.Error(c, http.StatusConflict, "WRONG_STEP", err.Error())
	case errors.Is(err, ErrStaleResult):
		response.Error(c, http.StatusConflict, "STALE_RESULT", "The booking changed meanwhile, please retry")
	case errors.Is(err, ErrSubmissionInFlight):
		response.Error(c, http.StatusConflict, "SUBMISSION_IN_PROGRESS", "Booking is being submitted")
	case errors.Is(err, ErrConceptValidationFailed):
		response.Error(c, http.StatusBadGateway, "CONCEPT_VALIDATION_FAILED", "Concept could not be validated, please retry")
	case errors.Is(err, ErrSubmissionFailed):
		response.Error(c, http.StatusBadGateway, "SUBMISSION_FAILED", "Booking could not be created, please retry")
	case errors.Is(err, ErrCatalogUnavailable), errors.Is(err, voucher.ErrListFailed):
		response.Error(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Storefront is unavailable, please retry")
	case errors.Is(err, ErrAvailabilityUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "AVAILABILITY_UNAVAILABLE", "Availability could not be confirmed, please retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
