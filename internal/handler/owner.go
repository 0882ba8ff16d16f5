package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/devrev/bizdir/internal/model"
	"go.uber.org/zap"
)

// AnalyticsResponse is a listing's click summary.
type AnalyticsResponse struct {
	BusinessID string             `json:"business_id"`
	Clicks     []model.ClickCount `json:"clicks"`
}

// CreateBusiness handles POST /v1/me/businesses requests.
func (h *Handlers) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req BusinessHTTPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	business, err := h.services.Businesses.Create(ctx, userID, req.input())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, business)
}

// ListMyBusinesses handles GET /v1/me/businesses requests.
func (h *Handlers) ListMyBusinesses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	businesses, err := h.services.Businesses.ListOwned(ctx, userID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if businesses == nil {
		businesses = []*model.Business{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"businesses": businesses})
}

// UpdateBusiness handles PUT /v1/me/businesses/{id} requests.
func (h *Handlers) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req BusinessHTTPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	business, err := h.services.Businesses.Update(ctx, userID, pathVar(r, "id"), req.input())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, business)
}

// SubmitReview handles POST /v1/businesses/{id}/reviews requests.
func (h *Handlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req ReviewHTTPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	review, err := h.services.Reviews.Submit(ctx, userID, pathVar(r, "id"), req.Rating, req.Comment)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, review)
}

// RequestVerification handles POST /v1/me/businesses/{id}/verification requests.
func (h *Handlers) RequestVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req VerificationHTTPRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	request, err := h.services.Verifications.Request(ctx, userID, pathVar(r, "id"), req.Notes)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, request)
}

// ListMyPromotions handles GET /v1/me/businesses/{id}/promotions requests.
func (h *Handlers) ListMyPromotions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	business, err := h.services.Businesses.Owned(ctx, userID, pathVar(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	promotions, err := h.services.Promotions.List(ctx, business.ID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if promotions == nil {
		promotions = []*model.Promotion{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"promotions": promotions})
}

// SubmitCategoryRequest handles POST /v1/category-requests requests.
func (h *Handlers) SubmitCategoryRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req CategoryHTTPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	request, err := h.services.Categories.SubmitRequest(ctx, userID, req.Name, req.Description)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, request)
}

// MyBusinessAnalytics handles GET /v1/me/businesses/{id}/analytics requests.
func (h *Handlers) MyBusinessAnalytics(w http.ResponseWriter, r *http.Request) {
	h.analytics(w, r, h.ownedBusiness)
}

// MyBusinessReport handles GET /v1/me/businesses/{id}/analytics/report.pdf requests.
func (h *Handlers) MyBusinessReport(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, h.ownedBusiness)
}

// AdminBusinessAnalytics handles GET /v1/admin/businesses/{id}/analytics requests.
func (h *Handlers) AdminBusinessAnalytics(w http.ResponseWriter, r *http.Request) {
	h.analytics(w, r, h.anyBusiness)
}

// AdminBusinessReport handles GET /v1/admin/businesses/{id}/analytics/report.pdf requests.
func (h *Handlers) AdminBusinessReport(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, h.anyBusiness)
}

type businessLookup func(ctx context.Context, r *http.Request) (*model.Business, error)

func (h *Handlers) ownedBusiness(ctx context.Context, r *http.Request) (*model.Business, error) {
	return h.services.Businesses.Owned(ctx, principalID(r), pathVar(r, "id"))
}

func (h *Handlers) anyBusiness(ctx context.Context, r *http.Request) (*model.Business, error) {
	return h.services.Businesses.Get(ctx, pathVar(r, "id"))
}

func (h *Handlers) analytics(w http.ResponseWriter, r *http.Request, lookup businessLookup) {
	from, to, err := rangeFrom(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	business, err := lookup(ctx, r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	counts, err := h.services.Analytics.Summary(ctx, business.ID, from, to)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if counts == nil {
		counts = []model.ClickCount{}
	}
	h.writeJSONResponse(w, http.StatusOK, AnalyticsResponse{BusinessID: business.ID, Clicks: counts})
}

// report renders into memory first so a failure still gets a JSON error.
func (h *Handlers) report(w http.ResponseWriter, r *http.Request, lookup businessLookup) {
	from, to, err := rangeFrom(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	business, err := lookup(ctx, r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.services.Reports.WriteClickReport(ctx, &buf, business, from, to); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFilename(business, time.Now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write report", zap.String("business_id", business.ID), zap.Error(err))
	}
}

func reportFilename(b *model.Business, t time.Time) string {
	return fmt.Sprintf("%s-clicks-%s.pdf", b.Slug, t.UTC().Format(dateLayout))
}
