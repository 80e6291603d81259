package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastx"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
)

// Submitter signs and sends canvas envelopes to the processor address and
// waits for inclusion. One instance per signing key.
type Submitter struct {
	client *ethclient.Client
	reader *Reader
	key    *ecdsa.PrivateKey
	from   common.Address
}

func NewSubmitter(client *ethclient.Client, key *ecdsa.PrivateKey) *Submitter {
	return &Submitter{
		client: client,
		reader: NewReader(client),
		key:    key,
		from:   crypto.PubkeyToAddress(key.PublicKey),
	}
}

// From returns the sender address derived from the signing key.
func (s *Submitter) From() common.Address {
	return s.from
}

// Reader exposes the storage reader bound to the same RPC connection.
func (s *Submitter) Reader() *Reader {
	return s.reader
}

// SubmitPlacement sends a placement envelope funded with the current pixel
// price and blocks until the transaction is mined. A mined-but-reverted
// transaction is returned as an error alongside its hash.
func (s *Submitter) SubmitPlacement(ctx context.Context, envelope *canvastx.Envelope) (common.Hash, error) {
	price, err := s.reader.PixelPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to read pixel price: %w", err)
	}
	return s.Submit(ctx, envelope, price.ToBig())
}

// SubmitAdmin sends an envelope carrying only admin operations. No payment
// attached.
func (s *Submitter) SubmitAdmin(ctx context.Context, envelope *canvastx.Envelope) (common.Hash, error) {
	return s.Submit(ctx, envelope, nil)
}

// Submit signs the envelope into a dynamic fee transaction with the given
// value and waits for the receipt.
func (s *Submitter) Submit(ctx context.Context, envelope *canvastx.Envelope, value *big.Int) (common.Hash, error) {
	if err := envelope.Tx.Validate(); err != nil {
		return common.Hash{}, err
	}

	txData, err := rlp.EncodeToBytes(envelope)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode canvas envelope: %w", err)
	}

	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get chain ID: %w", err)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	msg := ethereum.CallMsg{
		From:  s.from,
		To:    &address.CanvasProcessorAddress,
		Value: value,
		Data:  txData,
	}

	gasLimit, err := s.client.EstimateGas(ctx, msg)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	gasTipCap, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to suggest gas tip cap: %w", err)
	}

	gasFeeCap, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to suggest gas fee cap: %w", err)
	}

	tx := &types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		Gas:       gasLimit,
		Data:      txData,
		To:        &address.CanvasProcessorAddress,
		Value:     value,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
	}

	signer := types.LatestSignerForChainID(chainID)

	signedTx, err := types.SignNewTx(s.key, signer, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	txHash := signedTx.Hash()

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send tx: %w", err)
	}

	log.Debug("canvas tx sent", "hash", txHash, "nonce", nonce, "gas", gasLimit)

	receipt, err := bind.WaitMinedHash(ctx, s.client, txHash)
	if err != nil {
		return txHash, fmt.Errorf("failed to wait for tx %s: %w", txHash.Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return txHash, fmt.Errorf("tx %s reverted", txHash.Hex())
	}

	return txHash, nil
}
