package domain

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// ReferralProgram is the per-library referral configuration. RewardType and
// RewardValue shape the one-time promotion issued to the referrer;
// DiscountType and DiscountValue shape the discount the referee gets on
// their first payment.
type ReferralProgram struct {
	Enabled       bool   `json:"enabled"`
	RewardType    string `json:"reward_type"`
	RewardValue   int64  `json:"reward_value"`
	DiscountType  string `json:"discount_type"`
	DiscountValue int64  `json:"discount_value"`
}

type referralSettingsEnvelope struct {
	Referral json.RawMessage `json:"referral"`
}

type referralSettingsNested struct {
	All *ReferralProgram `json:"all"`
}

// ReferralProgram extracts the referral configuration from the library's
// settings blob. Newer tenants store the program under a nested "all"
// sub-object; older ones keep the fields flat on the referral block. Both
// shapes are accepted, nested first.
func (l Library) ReferralProgram() ReferralProgram {
	return ParseReferralProgram(l.Settings)
}

func ParseReferralProgram(raw datatypes.JSON) ReferralProgram {
	if len(raw) == 0 {
		return ReferralProgram{}
	}

	var env referralSettingsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Referral) == 0 {
		return ReferralProgram{}
	}

	var nested referralSettingsNested
	if err := json.Unmarshal(env.Referral, &nested); err == nil && nested.All != nil {
		return *nested.All
	}

	var flat ReferralProgram
	if err := json.Unmarshal(env.Referral, &flat); err != nil {
		return ReferralProgram{}
	}
	return flat
}
