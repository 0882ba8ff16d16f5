package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/service"
	"go.uber.org/zap"
)

// ListBusinessesResponse is a page of the public directory.
type ListBusinessesResponse struct {
	Businesses []*model.Business `json:"businesses"`
	Total      int64             `json:"total"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}

// ListBusinesses handles GET /v1/businesses requests.
func (h *Handlers) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")

	query, err := listingQueryFrom(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), requestID)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	businesses, total, err := h.services.Businesses.ListPublic(ctx, query)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if businesses == nil {
		businesses = []*model.Business{}
	}

	h.writeJSONResponse(w, http.StatusOK, ListBusinessesResponse{
		Businesses: businesses,
		Total:      total,
		Limit:      query.Page.Limit,
		Offset:     query.Page.Offset,
	})
}

// GetBusiness handles GET /v1/businesses/{slug} requests.
func (h *Handlers) GetBusiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	detail, err := h.services.Businesses.GetPublic(ctx, pathVar(r, "slug"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, detail)
}

// ListReviews handles GET /v1/businesses/{id}/reviews requests.
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	reviews, err := h.services.Reviews.ListApproved(ctx, pathVar(r, "id"), page)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []*model.Review{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

// ListCategories handles GET /v1/categories requests.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	categories, err := h.services.Categories.List(ctx)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if categories == nil {
		categories = []*model.Category{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// ListSubcategories handles GET /v1/categories/{id}/subcategories requests.
func (h *Handlers) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	subcategories, err := h.services.Categories.ListSubcategories(ctx, pathVar(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if subcategories == nil {
		subcategories = []*model.Subcategory{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"subcategories": subcategories})
}

// TrackClick handles POST /v1/analytics/clicks requests.
// Storage failures still answer 200 with recorded=false.
func (h *Handlers) TrackClick(w http.ResponseWriter, r *http.Request) {
	var req ClickHTTPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	result, err := h.services.Analytics.TrackClick(ctx, service.ClickInput{
		BusinessID: req.BusinessID,
		ClickType:  model.ClickType(req.ClickType),
		Referrer:   req.Referrer,
		IP:         clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, result)
}

// PaymentWebhook handles POST /v1/webhooks/payments requests.
// A non-2xx answer makes the provider retry the delivery.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	defer r.Body.Close()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxWebhook))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, apierrors.ErrorCodeInvalidRequest,
				"payload too large", requestID)
			return
		}
		h.errorHandler.WriteValidationError(w, "failed to read request body", requestID)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	start := time.Now()
	if err := h.services.Webhooks.Handle(ctx, payload, r.Header.Get(service.SignatureHeader)); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.Debug("Payment webhook acknowledged",
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)))
	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"received": true})
}
