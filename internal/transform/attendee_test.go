package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/model"
)

func validAttendeeRaw() map[string]any {
	return map[string]any{
		"id":         "a-1",
		"first_name": "Grace",
		"last_name":  "Hopper",
		"email":      "grace@navy.mil",
		"company":    "USN",
	}
}

func TestAttendee_EmailAddressRename(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	raw := validAttendeeRaw()
	delete(raw, "email")
	raw["email_address"] = "a@b.com"

	att, err := tr.FromDatabase(raw)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", att.Email)
}

func TestAttendee_EmailNotOverwrittenByOldField(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	raw := validAttendeeRaw()
	raw["email_address"] = "old@b.com"

	att, err := tr.FromDatabase(raw)
	require.NoError(t, err)
	// Canonical field present: the record is not tagged as the renamed
	// variant and the canonical value wins.
	assert.Equal(t, "grace@navy.mil", att.Email)
}

func TestAttendee_FullNameComputed(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	att, err := tr.FromDatabase(validAttendeeRaw())
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", att.FullName)
}

func TestAttendee_StringifiedSpouseFlag(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	raw := validAttendeeRaw()
	raw["has_spouse"] = "true"

	att, err := tr.FromDatabase(raw)
	require.NoError(t, err)
	assert.True(t, att.HasSpouse)
}

func TestAttendee_MissingFirstNameFails(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	raw := validAttendeeRaw()
	delete(raw, "first_name")

	_, err := tr.FromDatabase(raw)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestAttendee_BadEmailFails(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	raw := validAttendeeRaw()
	raw["email"] = "not-an-email"

	_, err := tr.FromDatabase(raw)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestAttendee_FilterRecord(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	raw := validAttendeeRaw()
	raw["business_phone"] = "555-0100"
	raw["hotel_selection"] = "Grand Hotel"

	result, err := tr.engine.FromRecord(raw)
	require.NoError(t, err)

	filtered := tr.FilterRecord(result)
	for _, field := range attendeeConfidentialTargets {
		_, present := filtered[field]
		assert.False(t, present, "confidential field %s must be absent", field)
	}
	assert.Equal(t, "Grace", filtered["firstName"])

	// The unfiltered result is untouched.
	assert.Equal(t, "555-0100", result["businessPhone"])
}

func TestAttendee_IsFilteredRecord(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	filtered := map[string]any{"id": "a-1", "firstName": "Grace"}
	assert.True(t, tr.IsFilteredRecord(filtered))

	unfiltered := map[string]any{"id": "a-1", "businessPhone": "555-0100"}
	assert.False(t, tr.IsFilteredRecord(unfiltered))

	// A present-but-nil confidential key still marks the record as
	// unfiltered: the filter removes keys entirely.
	withNil := map[string]any{"id": "a-1", "roomType": nil}
	assert.False(t, tr.IsFilteredRecord(withNil))
}

func TestAttendee_FromCache(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	cached := map[string]any{
		"id":        "a-1",
		"firstName": "Grace",
		"lastName":  "Hopper",
		"email":     "grace@navy.mil",
		"company":   "USN",
	}

	att, err := tr.FromCache(cached)
	require.NoError(t, err)
	assert.Equal(t, "Grace", att.FirstName)
	assert.Equal(t, "Grace Hopper", att.FullName)
	assert.Empty(t, att.BusinessPhone)
	assert.Empty(t, att.HotelSelection)
}

func TestAttendee_FromCache_Nil(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	_, err := tr.FromCache(nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestAttendee_FilterAttendee(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	att := model.Attendee{
		ID:             "a-1",
		FirstName:      "Grace",
		BusinessPhone:  "555-0100",
		HotelSelection: "Grand Hotel",
		RoomType:       "suite",
	}
	filtered := tr.FilterAttendee(att)
	assert.Equal(t, "Grace", filtered.FirstName)
	assert.Empty(t, filtered.BusinessPhone)
	assert.Empty(t, filtered.HotelSelection)
	assert.Empty(t, filtered.RoomType)
}

func TestAttendee_ValidateStayDates(t *testing.T) {
	tr := NewAttendeeTransformer(zap.NewNop())

	ok := model.Attendee{CheckInDate: "2026-09-13", CheckOutDate: "2026-09-16"}
	assert.NoError(t, tr.ValidateStayDates(ok))

	partial := model.Attendee{CheckInDate: "2026-09-13"}
	assert.NoError(t, tr.ValidateStayDates(partial))

	backwards := model.Attendee{CheckInDate: "2026-09-16", CheckOutDate: "2026-09-13"}
	err := tr.ValidateStayDates(backwards)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSortAttendeesByName(t *testing.T) {
	attendees := []model.Attendee{
		{FirstName: "Zoe", LastName: "baker"},
		{FirstName: "Amy", LastName: "Baker"},
		{FirstName: "Carl", LastName: "Adams"},
	}
	sorted := SortAttendeesByName(attendees)
	assert.Equal(t, "Adams", sorted[0].LastName)
	assert.Equal(t, "Amy", sorted[1].FirstName)
	assert.Equal(t, "Zoe", sorted[2].FirstName)
}
