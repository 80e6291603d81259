package place

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastx"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/colorhex"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassUnknown},
		{"rate limited sentinel", fmt.Errorf("wrapped: %w", canvastx.ErrRateLimited), ClassRateLimited},
		{"payload size sentinel", canvastx.ErrPayloadSize, ClassPayloadInvalid},
		{"empty data ref", canvastx.ErrEmptyDataRef, ClassPayloadInvalid},
		{"already processed", canvastx.ErrAlreadyProcessed, ClassPayloadInvalid},
		{"no declared range", canvastx.ErrNoDeclaredRange, ClassPayloadInvalid},
		{"no color", colorhex.ErrNoColor, ClassPayloadInvalid},
		{"bad hex", colorhex.ErrBadHex, ClassPayloadInvalid},
		{"out of bounds", canvastx.ErrOutOfBounds, ClassPayloadInvalid},
		{"paused", canvastx.ErrPaused, ClassPayloadInvalid},
		{"insufficient payment", canvastx.ErrInsufficientPayment, ClassGasOrFunds},
		{"deadline", context.DeadlineExceeded, ClassNetwork},
		{"user denied string", errors.New("MetaMask Tx Signature: User denied transaction signature"), ClassUserDeclined},
		{"user rejected string", errors.New("user rejected the request"), ClassUserDeclined},
		{"rate limit string", errors.New("execution reverted: placement rate limit in effect: retry in 42s"), ClassRateLimited},
		{"insufficient funds string", errors.New("insufficient funds for gas * price + value"), ClassGasOrFunds},
		{"gas estimation string", errors.New("gas required exceeds allowance"), ClassGasOrFunds},
		{"connection refused", errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"), ClassNetwork},
		{"timeout string", errors.New("i/o timeout"), ClassNetwork},
		{"eof", errors.New("unexpected EOF"), ClassNetwork},
		{"anything else", errors.New("some provider weirdness"), ClassUnknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.err), "error: %v", c.err)
		})
	}
}

func TestMessageIsSingleLine(t *testing.T) {
	for _, class := range []Class{
		ClassUnknown, ClassUserDeclined, ClassRateLimited,
		ClassPayloadInvalid, ClassNetwork, ClassGasOrFunds,
	} {
		msg := class.Message(errors.New("raw provider trace"))
		assert.NotEmpty(t, msg)
		assert.NotContains(t, msg, "\n")
	}
}

func TestRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()

	t.Run("NetworkRetriesUpToMax", func(t *testing.T) {
		assert.True(t, p.Retryable(ClassNetwork, 1))
		assert.True(t, p.Retryable(ClassNetwork, 2))
		assert.False(t, p.Retryable(ClassNetwork, 3))
	})

	t.Run("UnknownGetsOneRetry", func(t *testing.T) {
		assert.True(t, p.Retryable(ClassUnknown, 1))
		assert.False(t, p.Retryable(ClassUnknown, 2))
	})

	t.Run("GasGetsOneRetry", func(t *testing.T) {
		assert.True(t, p.Retryable(ClassGasOrFunds, 1))
		assert.False(t, p.Retryable(ClassGasOrFunds, 2))
	})

	t.Run("HopelessClassesNeverRetry", func(t *testing.T) {
		assert.False(t, p.Retryable(ClassUserDeclined, 1))
		assert.False(t, p.Retryable(ClassRateLimited, 1))
		assert.False(t, p.Retryable(ClassPayloadInvalid, 1))
	})

	t.Run("BackoffSchedule", func(t *testing.T) {
		assert.Equal(t, p.Backoff[0], p.Delay(1))
		assert.Equal(t, p.Backoff[1], p.Delay(2))
		// beyond the schedule the last entry repeats
		assert.Equal(t, p.Backoff[3], p.Delay(10))
	})

	t.Run("Terminal", func(t *testing.T) {
		assert.True(t, Terminal(ClassUserDeclined))
		assert.True(t, Terminal(ClassRateLimited))
		assert.False(t, Terminal(ClassNetwork))
		assert.False(t, Terminal(ClassPayloadInvalid))
	})
}
