package keeper

import (
	"context"

	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

const (
	operationCheckPrice  = "check_price_input"
	operationCheckPrices = "check_prices_input"
)

// CheckPriceInput verifies a single signed attestation and consumes its nonce.
// The signature is checked over the raw message bytes before the message is
// parsed; no state changes unless every step succeeds.
func (k Keeper) CheckPriceInput(ctx context.Context, message, signature string) (msg types.PriceMessage, err error) {
	defer func() { k.metrics.Verifications.WithLabelValues(operationCheckPrice, resultLabel(err)).Inc() }()

	if err := k.verify(ctx, message, signature); err != nil {
		return types.PriceMessage{}, err
	}

	msg, err = types.ParsePriceMessage(message)
	if err != nil {
		return types.PriceMessage{}, err
	}

	if err := k.nonces.Consume(ctx, msg.Nonce); err != nil {
		return types.PriceMessage{}, err
	}
	k.metrics.NoncesConsumed.Inc()

	return msg, nil
}

// CheckPricesInput verifies one signature over a whole batch, then consumes
// every sub-message nonce in order.
//
// A nonce collision fails the call with ErrNonceReused. Nonces consumed by
// earlier sub-messages of the failing batch are NOT rolled back here; the
// MsgServer commits them. Any other failure happens before the first insert.
func (k Keeper) CheckPricesInput(ctx context.Context, message, signature string) (msgs []types.PriceMessage, err error) {
	defer func() { k.metrics.Verifications.WithLabelValues(operationCheckPrices, resultLabel(err)).Inc() }()

	if err := k.verify(ctx, message, signature); err != nil {
		return nil, err
	}

	msgs, err = types.ParsePriceMessages(message)
	if err != nil {
		return nil, err
	}
	k.metrics.BatchSize.Observe(float64(len(msgs)))

	if err := k.consumeBatchNonces(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// consumeBatchNonces inserts nonces in batch order and stops at the first
// one already present, including a duplicate within msgs itself.
func (k Keeper) consumeBatchNonces(ctx context.Context, msgs []types.PriceMessage) error {
	for i, msg := range msgs {
		if err := k.nonces.Consume(ctx, msg.Nonce); err != nil {
			if types.ErrNonceReused.Is(err) {
				k.Logger(ctx).Debug("batch nonce collision", "index", i, "nonce", msg.Nonce, "committed", i)
			}
			return err
		}
		k.metrics.NoncesConsumed.Inc()
	}
	return nil
}

func (k Keeper) verify(ctx context.Context, message, signature string) error {
	pk, err := k.GetPublicKey(ctx)
	if err != nil {
		return err
	}
	return types.VerifySignature([]byte(message), signature, pk)
}

// IsNonceUsed reports whether nonce has been consumed.
func (k Keeper) IsNonceUsed(ctx context.Context, nonce uint64) (bool, error) {
	return k.nonces.IsUsed(ctx, nonce)
}

// UsedNonceCount returns the size of the used nonce set.
func (k Keeper) UsedNonceCount(ctx context.Context) (uint64, error) {
	return k.nonces.Count(ctx)
}

// IterateUsedNonces walks consumed nonces in ascending order.
func (k Keeper) IterateUsedNonces(ctx context.Context, cb func(nonce uint64) (stop bool)) error {
	return k.nonces.Iterate(ctx, cb)
}
