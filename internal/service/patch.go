package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
)

// clonePatch copies patch so edits never reach the caller's map
func clonePatch(patch domain.Patch) domain.Patch {
	out := make(domain.Patch, len(patch))
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// patchString reads a string field from patch. ok is false when the key is absent.
func patchString(patch domain.Patch, key string) (string, bool, error) {
	v, ok := patch[key]
	if !ok {
		return "", false, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", true, domain.Invalid(key, "must be a string")
	}
	return s, true, nil
}

// requirePresent rejects patches that blank out a required field
func requirePresent(patch domain.Patch, keys ...string) error {
	for _, key := range keys {
		s, ok, err := patchString(patch, key)
		if err != nil {
			return err
		}
		if ok && strings.TrimSpace(s) == "" {
			return domain.Invalid(key, "is required")
		}
	}
	return nil
}

func validDate(field, value string) error {
	if _, err := time.Parse(domain.DateLayout, value); err != nil {
		return domain.Invalid(field, fmt.Sprintf("must be a date formatted %s", domain.DateLayout))
	}
	return nil
}

func validTime(field, value string) error {
	if _, err := time.Parse(domain.TimeLayout, value); err != nil {
		return domain.Invalid(field, fmt.Sprintf("must be a time formatted %s", domain.TimeLayout))
	}
	return nil
}

// patchDates validates the date fields present in patch
func patchDates(patch domain.Patch, keys ...string) error {
	for _, key := range keys {
		s, ok, err := patchString(patch, key)
		if err != nil {
			return err
		}
		if ok && s != "" {
			if err := validDate(key, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// contains reports whether any field contains the search term, ignoring case
func contains(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func today(now time.Time) string {
	return now.Format(domain.DateLayout)
}
