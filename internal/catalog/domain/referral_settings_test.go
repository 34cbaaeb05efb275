package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestParseReferralProgramNested(t *testing.T) {
	raw := datatypes.JSON(`{"referral":{"all":{"enabled":true,"reward_type":"fixed","reward_value":10000,"discount_type":"percentage","discount_value":10}}}`)
	p := ParseReferralProgram(raw)
	assert.True(t, p.Enabled)
	assert.Equal(t, "fixed", p.RewardType)
	assert.Equal(t, int64(10000), p.RewardValue)
	assert.Equal(t, "percentage", p.DiscountType)
}

func TestParseReferralProgramLegacyFlat(t *testing.T) {
	raw := datatypes.JSON(`{"referral":{"enabled":true,"reward_type":"percentage","reward_value":5}}`)
	p := ParseReferralProgram(raw)
	assert.True(t, p.Enabled)
	assert.Equal(t, "percentage", p.RewardType)
	assert.Equal(t, int64(5), p.RewardValue)
}

func TestParseReferralProgramMissing(t *testing.T) {
	assert.False(t, ParseReferralProgram(nil).Enabled)
	assert.False(t, ParseReferralProgram(datatypes.JSON(`{}`)).Enabled)
	assert.False(t, ParseReferralProgram(datatypes.JSON(`not json`)).Enabled)
}
