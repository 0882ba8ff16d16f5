package handler

import (
	"context"
	"net/http"

	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/service"
)

// Dashboard handles GET /v1/admin/dashboard requests.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	counts, err := h.services.Dashboard.Counts(ctx)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, counts)
}

// AdminListBusinesses handles GET /v1/admin/businesses?status= requests.
func (h *Handlers) AdminListBusinesses(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	status := model.BusinessStatus(r.URL.Query().Get("status"))
	businesses, err := h.services.Businesses.ListByStatus(ctx, status, page)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if businesses == nil {
		businesses = []*model.Business{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"businesses": businesses})
}

// ApproveBusiness handles POST /v1/admin/businesses/{id}/approve requests.
func (h *Handlers) ApproveBusiness(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "business approved", func(ctx context.Context) (interface{}, error) {
		return h.services.Businesses.Approve(ctx, pathVar(r, "id"))
	})
}

// RejectBusiness handles POST /v1/admin/businesses/{id}/reject requests.
func (h *Handlers) RejectBusiness(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "business rejected", func(ctx context.Context) (interface{}, error) {
		return h.services.Businesses.Reject(ctx, pathVar(r, "id"))
	})
}

// DeleteBusiness handles DELETE /v1/admin/businesses/{id} requests.
func (h *Handlers) DeleteBusiness(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "business deleted", func(ctx context.Context) (interface{}, error) {
		return nil, h.services.Businesses.Delete(ctx, pathVar(r, "id"))
	})
}

// AdminListReviews handles GET /v1/admin/reviews?status= requests.
func (h *Handlers) AdminListReviews(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	reviews, err := h.services.Reviews.ListByStatus(ctx, model.ReviewStatus(r.URL.Query().Get("status")), page)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []*model.Review{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

// ApproveReview handles POST /v1/admin/reviews/{id}/approve requests.
func (h *Handlers) ApproveReview(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "review approved", func(ctx context.Context) (interface{}, error) {
		return h.services.Reviews.Approve(ctx, pathVar(r, "id"))
	})
}

// RejectReview handles POST /v1/admin/reviews/{id}/reject requests.
func (h *Handlers) RejectReview(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "review rejected", func(ctx context.Context) (interface{}, error) {
		return h.services.Reviews.Reject(ctx, pathVar(r, "id"))
	})
}

// DeleteReview handles DELETE /v1/admin/reviews/{id} requests.
func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "review deleted", func(ctx context.Context) (interface{}, error) {
		return nil, h.services.Reviews.Delete(ctx, pathVar(r, "id"))
	})
}

// AdminListVerifications handles GET /v1/admin/verifications?status= requests.
func (h *Handlers) AdminListVerifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	requests, err := h.services.Verifications.ListByStatus(ctx, model.RequestStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if requests == nil {
		requests = []*model.VerificationRequest{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"verifications": requests})
}

// ApproveVerification handles POST /v1/admin/verifications/{id}/approve requests.
func (h *Handlers) ApproveVerification(w http.ResponseWriter, r *http.Request) {
	h.decideVerification(w, r, true)
}

// RejectVerification handles POST /v1/admin/verifications/{id}/reject requests.
func (h *Handlers) RejectVerification(w http.ResponseWriter, r *http.Request) {
	h.decideVerification(w, r, false)
}

func (h *Handlers) decideVerification(w http.ResponseWriter, r *http.Request, approve bool) {
	var req VerificationHTTPRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	reviewerID := principalID(r)
	if approve {
		h.action(w, r, "verification approved", func(ctx context.Context) (interface{}, error) {
			return h.services.Verifications.Approve(ctx, pathVar(r, "id"), reviewerID, req.AdminNotes)
		})
		return
	}
	h.action(w, r, "verification rejected", func(ctx context.Context) (interface{}, error) {
		return h.services.Verifications.Reject(ctx, pathVar(r, "id"), reviewerID, req.AdminNotes)
	})
}

// CreateCategory handles POST /v1/admin/categories requests.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryHTTPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}
	h.action(w, r, "category created", func(ctx context.Context) (interface{}, error) {
		return h.services.Categories.Create(ctx, categoryInput(req))
	})
}

// UpdateCategory handles PUT /v1/admin/categories/{id} requests.
func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryHTTPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}
	h.action(w, r, "category updated", func(ctx context.Context) (interface{}, error) {
		return h.services.Categories.Update(ctx, pathVar(r, "id"), categoryInput(req))
	})
}

// DeleteCategory handles DELETE /v1/admin/categories/{id} requests.
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "category deleted", func(ctx context.Context) (interface{}, error) {
		return nil, h.services.Categories.Delete(ctx, pathVar(r, "id"))
	})
}

// CreateSubcategory handles POST /v1/admin/categories/{id}/subcategories requests.
func (h *Handlers) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryHTTPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}
	h.action(w, r, "subcategory created", func(ctx context.Context) (interface{}, error) {
		return h.services.Categories.CreateSubcategory(ctx, pathVar(r, "id"), categoryInput(req))
	})
}

// DeleteSubcategory handles DELETE /v1/admin/subcategories/{id} requests.
func (h *Handlers) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "subcategory deleted", func(ctx context.Context) (interface{}, error) {
		return nil, h.services.Categories.DeleteSubcategory(ctx, pathVar(r, "id"))
	})
}

// AdminListCategoryRequests handles GET /v1/admin/category-requests requests.
func (h *Handlers) AdminListCategoryRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	requests, err := h.services.Categories.ListRequests(ctx, model.RequestStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if requests == nil {
		requests = []*model.CategoryRequest{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"category_requests": requests})
}

// ApproveCategoryRequest handles POST /v1/admin/category-requests/{id}/approve requests.
func (h *Handlers) ApproveCategoryRequest(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "category request approved", func(ctx context.Context) (interface{}, error) {
		return h.services.Categories.ApproveRequest(ctx, pathVar(r, "id"))
	})
}

// RejectCategoryRequest handles POST /v1/admin/category-requests/{id}/reject requests.
func (h *Handlers) RejectCategoryRequest(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "category request rejected", func(ctx context.Context) (interface{}, error) {
		return h.services.Categories.RejectRequest(ctx, pathVar(r, "id"))
	})
}

// RefreshPromotions handles POST /v1/admin/promotions/refresh requests.
func (h *Handlers) RefreshPromotions(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "promotions refreshed", func(ctx context.Context) (interface{}, error) {
		return h.services.Promotions.Refresh(ctx)
	})
}

// AdminListUsers handles GET /v1/admin/users requests.
func (h *Handlers) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	users, err := h.services.Dashboard.ListUsers(ctx, page)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if users == nil {
		users = []*model.Profile{}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"users": users})
}

// SetUserRole handles PUT /v1/admin/users/{id}/role requests.
func (h *Handlers) SetUserRole(w http.ResponseWriter, r *http.Request) {
	var req RoleHTTPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}
	actorID := principalID(r)
	h.action(w, r, "role updated", func(ctx context.Context) (interface{}, error) {
		return nil, h.services.Dashboard.SetUserRole(ctx, actorID, pathVar(r, "id"), model.Role(req.Role))
	})
}

func categoryInput(req CategoryHTTPRequest) service.CategoryInput {
	return service.CategoryInput{Name: req.Name, Slug: req.Slug, Description: req.Description}
}
