package validation

import (
	"encoding/json"
	"strings"
	"testing"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/model"
	"github.com/stretchr/testify/assert"
)

func validBusiness() *model.Business {
	return &model.Business{
		Name:         "Acme Bakery",
		CategoryID:   "cat-1",
		Email:        "hello@acme.example",
		Website:      "https://acme.example",
		Phone:        "+1 (555) 010-2000",
		WorkingHours: json.RawMessage(`{"mon":"09:00-17:00"}`),
	}
}

func TestValidateBusiness(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		mutate  func(*model.Business)
		wantErr string
	}{
		{"valid", func(b *model.Business) {}, ""},
		{"blank name", func(b *model.Business) { b.Name = "   " }, "name is required"},
		{"long name", func(b *model.Business) { b.Name = strings.Repeat("a", MaxNameLength+1) }, "name exceeds"},
		{"missing category", func(b *model.Business) { b.CategoryID = "" }, "category_id"},
		{"bad email", func(b *model.Business) { b.Email = "Acme <hello@acme.example>" }, "email"},
		{"bad website", func(b *model.Business) { b.Website = "acme.example" }, "website"},
		{"bad phone", func(b *model.Business) { b.Phone = "call me" }, "phone"},
		{"bad hours", func(b *model.Business) { b.WorkingHours = json.RawMessage(`{"mon":"9am-5pm"}`) }, "working hours"},
		{"no optional fields", func(b *model.Business) {
			b.Email, b.Website, b.Phone, b.WorkingHours = "", "", "", nil
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBusiness()
			tt.mutate(b)
			err := v.ValidateBusiness(b)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Equal(t, apierrors.ErrorCodeInvalidRequest, apierrors.CodeOf(err))
		})
	}
}

func TestValidateReview(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateReview(1, ""))
	assert.NoError(t, v.ValidateReview(5, strings.Repeat("é", MaxCommentLength)))
	assert.Error(t, v.ValidateReview(0, "ok"))
	assert.Error(t, v.ValidateReview(6, "ok"))
	assert.Error(t, v.ValidateReview(3, strings.Repeat("x", MaxCommentLength+1)))
}

func TestValidateSlug(t *testing.T) {
	for _, ok := range []string{"bakeries", "pet-care", "24-hour-pharmacy"} {
		assert.NoError(t, ValidateSlug(ok), ok)
	}
	for _, bad := range []string{"", "Pet-Care", "pet--care", "-pet", "pet_care", "café"} {
		assert.Error(t, ValidateSlug(bad), bad)
	}
}

func TestValidateCategoryRequest(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateCategoryRequest("Pet care", "Groomers and sitters"))
	assert.Error(t, v.ValidateCategoryRequest("", "x"))
	assert.Error(t, v.ValidateCategoryRequest("Pets", strings.Repeat("x", MaxDescriptionLength+1)))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Acme Bakery":          "acme-bakery",
		"  Joe's Café & Bar  ": "joes-cafe-and-bar",
		"24/7 Locksmith!!":     "24-7-locksmith",
		"Ñandú Grill":          "nandu-grill",
		"---":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}

	long := Slugify(strings.Repeat("word ", 100))
	assert.LessOrEqual(t, len(long), MaxSlugLength)
	assert.NoError(t, ValidateSlug(long))
}
