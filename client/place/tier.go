package place

// Tier is one placement strategy in fallback order.
type Tier int

const (
	// TierVerified submits placePixelWithVerifiedData with a declared
	// access-list range over the uploaded payload.
	TierVerified Tier = iota
	// TierLegacy submits the verified-data form without an access-list
	// declaration; development nodes resolve the reference themselves.
	TierLegacy
	// TierStandard submits the raw color. No preconditions beyond payment
	// and the rate limit; the terminal fallback.
	TierStandard
)

func (t Tier) String() string {
	switch t {
	case TierVerified:
		return "verified"
	case TierLegacy:
		return "legacy"
	case TierStandard:
		return "standard"
	default:
		return "unknown"
	}
}

// tiersFor returns the ordered pipeline for a request. Without a payload
// the verified tiers have nothing to verify and only the standard tier
// remains.
func tiersFor(req Request, haveUploader bool) []Tier {
	if len(req.Payload) == 0 || !haveUploader {
		return []Tier{TierStandard}
	}
	return []Tier{TierVerified, TierLegacy, TierStandard}
}
