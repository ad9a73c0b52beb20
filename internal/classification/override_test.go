package classification

import (
	"strings"
	"testing"

	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJustification = "Payment outage was contained to a test tenant, no real clients were affected."

func TestApplyOverride_Disabled(t *testing.T) {
	eff, errs := ApplyOverride(domain.TierMajor, OverrideRequest{
		Enabled:       false,
		Tier:          domain.TierMinor,
		Justification: validJustification,
	})

	assert.Nil(t, errs)
	assert.Equal(t, domain.TierMajor, eff.Tier)
	assert.False(t, eff.IsOverridden())

	rec := eff.Record()
	assert.Equal(t, domain.TierMajor, rec.Classification)
	assert.Equal(t, domain.TierMajor, rec.ClassificationCalculated)
	assert.False(t, rec.ClassificationOverride)
	assert.Nil(t, rec.ClassificationOverrideJustification)
}

func TestApplyOverride_RoundTrip(t *testing.T) {
	eff, errs := ApplyOverride(domain.TierMajor, OverrideRequest{
		Enabled:       true,
		Tier:          domain.TierSignificant,
		Justification: "  " + validJustification + "\n",
	})
	require.Nil(t, errs)

	rec := eff.Record()
	assert.Equal(t, domain.TierSignificant, rec.Classification)
	assert.Equal(t, domain.TierMajor, rec.ClassificationCalculated)
	assert.True(t, rec.ClassificationOverride)
	require.NotNil(t, rec.ClassificationOverrideJustification)
	assert.Equal(t, validJustification, *rec.ClassificationOverrideJustification)

	assert.Equal(t, eff, FromRecord(rec))
}

func TestApplyOverride_Validation(t *testing.T) {
	tests := []struct {
		name       string
		req        OverrideRequest
		wantFields []string
	}{
		{
			name:       "short justification",
			req:        OverrideRequest{Enabled: true, Tier: domain.TierMinor, Justification: "too short"},
			wantFields: []string{FieldJustification},
		},
		{
			name:       "whitespace padding does not count",
			req:        OverrideRequest{Enabled: true, Tier: domain.TierMinor, Justification: strings.Repeat(" ", 40) + "short" + strings.Repeat(" ", 40)},
			wantFields: []string{FieldJustification},
		},
		{
			name:       "invalid tier",
			req:        OverrideRequest{Enabled: true, Tier: "critical", Justification: validJustification},
			wantFields: []string{FieldTier},
		},
		{
			name:       "missing tier and justification",
			req:        OverrideRequest{Enabled: true},
			wantFields: []string{FieldTier, FieldJustification},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff, errs := ApplyOverride(domain.TierMajor, tt.req)

			require.NotNil(t, errs)
			assert.Len(t, errs, len(tt.wantFields))
			for _, field := range tt.wantFields {
				assert.Contains(t, errs, field)
			}
			assert.Equal(t, domain.TierMajor, eff.Tier)
			assert.Nil(t, eff.Override)
		})
	}
}

func TestApplyOverride_JustificationBoundary(t *testing.T) {
	exactly := strings.Repeat("a", MinJustificationLength)
	_, errs := ApplyOverride(domain.TierMinor, OverrideRequest{Enabled: true, Tier: domain.TierMajor, Justification: exactly})
	assert.Nil(t, errs)

	short := strings.Repeat("a", MinJustificationLength-1)
	_, errs = ApplyOverride(domain.TierMinor, OverrideRequest{Enabled: true, Tier: domain.TierMajor, Justification: short})
	assert.Contains(t, errs, FieldJustification)

	// Counted in characters, not bytes.
	multibyte := strings.Repeat("é", MinJustificationLength-1)
	_, errs = ApplyOverride(domain.TierMinor, OverrideRequest{Enabled: true, Tier: domain.TierMajor, Justification: multibyte})
	assert.Contains(t, errs, FieldJustification)
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		FieldTier:          "must be one of major, significant, minor",
		FieldJustification: "must be at least 50 characters",
	}

	assert.Equal(t,
		"validation failed: justification: must be at least 50 characters; tier: must be one of major, significant, minor",
		errs.Error())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "€1,000,000", FormatEUR(999_999.6))
	assert.Equal(t, "€100", FormatEUR(100))
	assert.Equal(t, "€1,000,000,000,000,000,000,000", FormatEUR(1e21))
	assert.Equal(t, "7.5%", FormatPercent(7.5))
}
