package place

import (
	"context"
	"errors"
	"strings"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastx"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/colorhex"
)

// Class buckets a placement failure for the retry policy.
type Class int

const (
	// ClassUnknown gets a single retry, then aborts.
	ClassUnknown Class = iota
	// ClassUserDeclined: the wallet rejected the signature. Never retried.
	ClassUserDeclined
	// ClassRateLimited: the ledger cooldown has not elapsed. Never retried;
	// waiting is the only cure and fallback tiers hit the same limiter.
	ClassRateLimited
	// ClassPayloadInvalid: the data itself is malformed. Never retried on
	// the same tier, but a fallback tier that does not need the payload may
	// still succeed.
	ClassPayloadInvalid
	// ClassNetwork: provider or transport trouble, retried with backoff.
	ClassNetwork
	// ClassGasOrFunds: balance or fee estimation trouble, limited retry.
	ClassGasOrFunds
)

func (c Class) String() string {
	switch c {
	case ClassUserDeclined:
		return "user-declined"
	case ClassRateLimited:
		return "rate-limited"
	case ClassPayloadInvalid:
		return "payload-invalid"
	case ClassNetwork:
		return "network"
	case ClassGasOrFunds:
		return "gas-or-funds"
	default:
		return "unknown"
	}
}

// Classify maps an error to its class, preferring typed sentinels over
// message sniffing. Provider errors arrive as opaque strings, so a few
// substring checks are unavoidable for those.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	switch {
	case errors.Is(err, canvastx.ErrRateLimited):
		return ClassRateLimited
	case errors.Is(err, canvastx.ErrPayloadSize),
		errors.Is(err, canvastx.ErrEmptyDataRef),
		errors.Is(err, canvastx.ErrAlreadyProcessed),
		errors.Is(err, canvastx.ErrNoDeclaredRange),
		errors.Is(err, colorhex.ErrNoColor),
		errors.Is(err, colorhex.ErrBadHex):
		return ClassPayloadInvalid
	case errors.Is(err, canvastx.ErrOutOfBounds),
		errors.Is(err, canvastx.ErrPaused):
		return ClassPayloadInvalid
	case errors.Is(err, canvastx.ErrInsufficientPayment):
		return ClassGasOrFunds
	case errors.Is(err, context.DeadlineExceeded):
		return ClassNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user denied"),
		strings.Contains(msg, "user rejected"),
		strings.Contains(msg, "request rejected"):
		return ClassUserDeclined
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "retry in"):
		return ClassRateLimited
	case strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "gas required exceeds"),
		strings.Contains(msg, "fee cap"):
		return ClassGasOrFunds
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporarily unavailable"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "eof"):
		return ClassNetwork
	}

	return ClassUnknown
}

// Message renders a single human-readable line for a terminal failure.
// Raw provider traces never reach the user.
func (c Class) Message(err error) string {
	switch c {
	case ClassUserDeclined:
		return "placement cancelled: the signature request was declined"
	case ClassRateLimited:
		if err != nil {
			return "placement rate limit in effect: " + err.Error()
		}
		return "placement rate limit in effect"
	case ClassPayloadInvalid:
		if err != nil {
			return "placement rejected: " + err.Error()
		}
		return "placement rejected: invalid payload"
	case ClassNetwork:
		return "network trouble talking to the ledger, placement not confirmed"
	case ClassGasOrFunds:
		return "placement failed: insufficient funds or gas"
	default:
		return "placement failed"
	}
}
