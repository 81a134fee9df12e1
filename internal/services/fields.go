package services

import (
	"strings"
	"unicode"

	"github.com/dimitrije/hackteams-api/internal/models"
)

// RequiredMemberFields must be non-empty before a member can be accepted.
var RequiredMemberFields = []string{"first_name", "mobile", "location"}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeFields(f models.MemberFields) models.MemberFields {
	return models.MemberFields{
		FirstName:    strings.TrimSpace(f.FirstName),
		LastName:     strings.TrimSpace(f.LastName),
		Mobile:       strings.TrimSpace(f.Mobile),
		Organization: strings.TrimSpace(f.Organization),
		Location:     strings.TrimSpace(f.Location),
	}
}

func missingFields(f models.MemberFields) []string {
	values := map[string]string{
		"first_name": f.FirstName,
		"mobile":     f.Mobile,
		"location":   f.Location,
	}
	var missing []string
	for _, name := range RequiredMemberFields {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// invalidFields names the fields holding control characters.
func invalidFields(f models.MemberFields) []string {
	values := []struct{ name, value string }{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"mobile", f.Mobile},
		{"organization", f.Organization},
		{"location", f.Location},
	}
	var invalid []string
	for _, v := range values {
		if hasControl(v.value) {
			invalid = append(invalid, v.name)
		}
	}
	return invalid
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// validateFields requires every field in RequiredMemberFields and rejects
// control characters anywhere.
func validateFields(f models.MemberFields) error {
	missing, invalid := missingFields(f), invalidFields(f)
	if len(missing) > 0 || len(invalid) > 0 {
		return &FieldsError{Missing: missing, Invalid: invalid}
	}
	return nil
}

// validateText only rejects control characters. Seeded rows may be
// incomplete.
func validateText(f models.MemberFields) error {
	if invalid := invalidFields(f); len(invalid) > 0 {
		return &FieldsError{Invalid: invalid}
	}
	return nil
}

func validateEmail(email string) error {
	switch {
	case email == "":
		return &FieldsError{Missing: []string{"email"}}
	case hasControl(email):
		return &FieldsError{Invalid: []string{"email"}}
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return ErrorCode(err)
}
