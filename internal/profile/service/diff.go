package service

import (
	"bytes"
	"encoding/json"

	"github.com/devdash/profile-backend/internal/profile/domain"
)

// changed reports whether the draft structurally differs from the
// canonical snapshot. Both sides are normalized first: inline-pending
// payloads collapse to their stored (empty) form, so a preview that has
// not round-tripped yet doesn't flag a change by itself. Ordering is
// significant: tags, gallery and project order are all user-visible.
func changed(draft, canonical *domain.Profile) bool {
	if draft == nil || canonical == nil {
		return false
	}
	a, err := json.Marshal(draft.StripInline())
	if err != nil {
		return true
	}
	b, err := json.Marshal(canonical.StripInline())
	if err != nil {
		return true
	}
	return !bytes.Equal(a, b)
}
