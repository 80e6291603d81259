package place

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/accesslist"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastx"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/overlay"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender replays a scripted sequence of outcomes and records the
// envelopes it saw.
type fakeSender struct {
	errs      []error
	calls     int
	envelopes []*canvastx.Envelope
}

func (s *fakeSender) SubmitPlacement(ctx context.Context, envelope *canvastx.Envelope) (common.Hash, error) {
	s.envelopes = append(s.envelopes, envelope)
	var err error
	if s.calls < len(s.errs) {
		err = s.errs[s.calls]
	}
	s.calls++
	if err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash("0xfeed"), nil
}

type fakeUploader struct {
	err   error
	calls int
}

func (u *fakeUploader) Upload(ctx context.Context, data []byte) (string, accesslist.Declared, error) {
	u.calls++
	if u.err != nil {
		return "", accesslist.Declared{}, u.err
	}
	hash := crypto.Keccak256Hash(data)
	return hash.Hex(), accesslist.Declared{ContentHash: hash, Length: uint64(len(data))}, nil
}

func newTestOrchestrator(sender TxSender, uploader Uploader) (*Orchestrator, *overlay.Overlay, *[]time.Duration) {
	ov := overlay.New(time.Hour)
	o := NewOrchestrator(sender, uploader, ov, DefaultRetryPolicy())

	slept := &[]time.Duration{}
	o.sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return o, ov, slept
}

func request(payload []byte) Request {
	return Request{X: 10, Y: 20, Color: [3]byte{0xff, 0, 0}, Payload: payload, ClientTxID: "tx-1"}
}

func TestPlaceVerifiedFirstTry(t *testing.T) {
	sender := &fakeSender{}
	uploader := &fakeUploader{}
	o, ov, _ := newTestOrchestrator(sender, uploader)

	result := o.Place(context.Background(), request([]byte("#ff0000 hi")))

	require.True(t, result.Confirmed)
	assert.Equal(t, TierVerified, result.Tier)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, uploader.calls)

	// envelope carries the declared range
	require.Len(t, sender.envelopes, 1)
	assert.Len(t, sender.envelopes[0].Declared, 1)
	assert.Len(t, sender.envelopes[0].Tx.Verified, 1)

	// confirmed entry left the overlay
	assert.Equal(t, 0, ov.Len())
}

func TestPlaceFallsThroughTiers(t *testing.T) {
	// payload rejected on the verified and legacy tiers, standard accepted
	sender := &fakeSender{errs: []error{
		canvastx.ErrPayloadSize,
		canvastx.ErrPayloadSize,
		nil,
	}}
	o, ov, _ := newTestOrchestrator(sender, &fakeUploader{})

	result := o.Place(context.Background(), request([]byte("#ff0000 hi")))

	require.True(t, result.Confirmed)
	assert.Equal(t, TierStandard, result.Tier)
	assert.Equal(t, 3, result.Attempts)

	require.Len(t, sender.envelopes, 3)
	// verified: declared range attached
	assert.NotEmpty(t, sender.envelopes[0].Declared)
	assert.NotEmpty(t, sender.envelopes[0].Tx.Verified)
	// legacy: same operation without the declaration
	assert.Empty(t, sender.envelopes[1].Declared)
	assert.NotEmpty(t, sender.envelopes[1].Tx.Verified)
	// standard: direct color placement
	assert.NotEmpty(t, sender.envelopes[2].Tx.Place)

	assert.Equal(t, 0, ov.Len())
}

func TestPlaceTerminalAbortsAllTiers(t *testing.T) {
	sender := &fakeSender{errs: []error{canvastx.ErrRateLimited}}
	o, ov, _ := newTestOrchestrator(sender, &fakeUploader{})

	result := o.Place(context.Background(), request([]byte("#ff0000 hi")))

	require.False(t, result.Confirmed)
	assert.Equal(t, ClassRateLimited, result.Class)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, sender.calls, "no fallback after a terminal failure")
	assert.NotEmpty(t, result.Reason)

	// optimistic pixel rolled back
	assert.Equal(t, 0, ov.Len())
}

func TestPlaceRetriesNetworkErrors(t *testing.T) {
	network := errors.New("dial tcp: connection refused")
	sender := &fakeSender{errs: []error{network, network, nil}}
	o, _, slept := newTestOrchestrator(sender, &fakeUploader{})

	result := o.Place(context.Background(), request([]byte("#ff0000 hi")))

	require.True(t, result.Confirmed)
	assert.Equal(t, TierVerified, result.Tier, "retries stay on the same tier")
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *slept)
}

func TestPlaceWithoutPayloadIsStandardOnly(t *testing.T) {
	sender := &fakeSender{}
	uploader := &fakeUploader{}
	o, _, _ := newTestOrchestrator(sender, uploader)

	result := o.Place(context.Background(), request(nil))

	require.True(t, result.Confirmed)
	assert.Equal(t, TierStandard, result.Tier)
	assert.Zero(t, uploader.calls)
	require.Len(t, sender.envelopes, 1)
	assert.NotEmpty(t, sender.envelopes[0].Tx.Place)
}

func TestPlaceUploadFailureFallsBack(t *testing.T) {
	sender := &fakeSender{}
	uploader := &fakeUploader{err: errors.New("store unreachable")}
	o, _, _ := newTestOrchestrator(sender, uploader)

	result := o.Place(context.Background(), request([]byte("#ff0000 hi")))

	require.True(t, result.Confirmed)
	assert.Equal(t, TierStandard, result.Tier)
	// both verified tiers retried the upload before giving up on it
	assert.Equal(t, 2, uploader.calls)
	require.Len(t, sender.envelopes, 1)
	assert.NotEmpty(t, sender.envelopes[0].Tx.Place)
}

func TestPlaceExhaustionRollsBack(t *testing.T) {
	boom := errors.New("some provider weirdness")
	sender := &fakeSender{errs: []error{boom, boom, boom, boom, boom, boom}}
	o, ov, _ := newTestOrchestrator(sender, &fakeUploader{})

	result := o.Place(context.Background(), request([]byte("#ff0000 hi")))

	require.False(t, result.Confirmed)
	assert.Equal(t, ClassUnknown, result.Class)
	assert.NotEmpty(t, result.Reason)
	assert.Error(t, result.Err)
	assert.Equal(t, 0, ov.Len())

	// unknown errors get one retry per tier across all three tiers
	assert.Equal(t, 6, sender.calls)
}
