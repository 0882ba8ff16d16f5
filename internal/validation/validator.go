// Package validation checks user input before it reaches the store.
package validation

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/model"
)

const (
	MaxNameLength        = 120
	MaxDescriptionLength = 5000
	MaxCommentLength     = 2000
	MaxSlugLength        = 140
	MaxAddressLength     = 300
	MinRating            = 1
	MaxRating            = 5
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{5,25}$`)
)

// Validator validates directory input
type Validator struct {
	maxNameLength    int
	maxCommentLength int
}

// NewValidator creates a new validator with default limits
func NewValidator() *Validator {
	return &Validator{
		maxNameLength:    MaxNameLength,
		maxCommentLength: MaxCommentLength,
	}
}

// ValidateBusiness validates the editable fields of a listing, including its working hours
func (v *Validator) ValidateBusiness(b *model.Business) error {
	if err := v.ValidateName("name", b.Name); err != nil {
		return err
	}
	if b.CategoryID == "" {
		return apierrors.InvalidArgument("category_id is required")
	}
	if utf8.RuneCountInString(b.Description) > MaxDescriptionLength {
		return apierrors.InvalidArgument("description exceeds %d characters", MaxDescriptionLength)
	}
	if utf8.RuneCountInString(b.Address) > MaxAddressLength {
		return apierrors.InvalidArgument("address exceeds %d characters", MaxAddressLength)
	}
	if b.Email != "" {
		if err := ValidateEmail(b.Email); err != nil {
			return err
		}
	}
	if b.Website != "" {
		if err := ValidateWebsite(b.Website); err != nil {
			return err
		}
	}
	if b.Phone != "" && !phonePattern.MatchString(b.Phone) {
		return apierrors.InvalidArgument("phone contains invalid characters")
	}
	if _, err := model.NormalizeWorkingHours(b.WorkingHours); err != nil {
		return apierrors.InvalidArgument("%v", err)
	}
	return nil
}

// ValidateReview validates a rating and comment
func (v *Validator) ValidateReview(rating int, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return apierrors.InvalidArgument("rating must be between %d and %d", MinRating, MaxRating)
	}
	if utf8.RuneCountInString(comment) > v.maxCommentLength {
		return apierrors.InvalidArgument("comment exceeds %d characters", v.maxCommentLength)
	}
	return nil
}

// ValidateCategory validates a category or subcategory name and slug
func (v *Validator) ValidateCategory(name, slug string) error {
	if err := v.ValidateName("name", name); err != nil {
		return err
	}
	return ValidateSlug(slug)
}

// ValidateCategoryRequest validates a user request for a new category
func (v *Validator) ValidateCategoryRequest(name, description string) error {
	if err := v.ValidateName("name", name); err != nil {
		return err
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return apierrors.InvalidArgument("description exceeds %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidateName checks a display name: non-blank, bounded, printable
func (v *Validator) ValidateName(field, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return apierrors.InvalidArgument("%s is required", field)
	}
	if utf8.RuneCountInString(trimmed) > v.maxNameLength {
		return apierrors.InvalidArgument("%s exceeds %d characters", field, v.maxNameLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return apierrors.InvalidArgument("%s cannot contain control characters", field)
		}
	}
	return nil
}

// ValidateSlug checks the lowercase, hyphen-separated slug charset
func ValidateSlug(slug string) error {
	if slug == "" {
		return apierrors.InvalidArgument("slug is required")
	}
	if len(slug) > MaxSlugLength {
		return apierrors.InvalidArgument("slug exceeds %d characters", MaxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return apierrors.InvalidArgument("slug may only contain lowercase letters, digits and single hyphens")
	}
	return nil
}

// ValidateEmail checks a bare email address
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apierrors.InvalidArgument("email is not a valid address")
	}
	return nil
}

// ValidateWebsite checks for an absolute http(s) URL
func ValidateWebsite(website string) error {
	u, err := url.Parse(website)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apierrors.InvalidArgument("website must be an absolute http or https URL")
	}
	return nil
}

// Slugify derives a slug from a display name.
// Common accents fold to ASCII; other punctuation becomes a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '\'' || r == '’':
			continue
		case r == '&':
			if b.Len() > 0 {
				b.WriteString("-and")
			}
			pendingHyphen = true
		default:
			if r >= utf8.RuneSelf && unicode.IsLetter(r) {
				if base, ok := foldAccent(r); ok {
					if pendingHyphen && b.Len() > 0 {
						b.WriteByte('-')
					}
					pendingHyphen = false
					b.WriteRune(base)
				}
				continue
			}
			pendingHyphen = true
		}
		if b.Len() >= MaxSlugLength-8 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

var accentFolds = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'ç': 'c',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ñ': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
}

func foldAccent(r rune) (rune, bool) {
	base, ok := accentFolds[r]
	return base, ok
}
