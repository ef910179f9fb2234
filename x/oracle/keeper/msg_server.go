package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

type msgServer struct {
	*Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
// for the provided Keeper.
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ types.MsgServer = msgServer{}

// branch runs fn against a cached copy of the store. Writes and events reach
// the parent context only when commit(err) returns true.
func branch(ctx sdk.Context, fn func(sdk.Context) error, commit func(error) bool) error {
	cms := ctx.MultiStore().CacheMultiStore()
	cacheCtx := ctx.WithMultiStore(cms).WithEventManager(sdk.NewEventManager())

	err := fn(cacheCtx)
	if commit(err) {
		cms.Write()
		ctx.EventManager().EmitEvents(cacheCtx.EventManager().Events())
	}
	return err
}

func onSuccess(err error) bool { return err == nil }

// CheckPriceInput verifies a signed price message and consumes its nonce.
func (ms msgServer) CheckPriceInput(goCtx context.Context, msg *types.MsgCheckPriceInput) (*types.MsgCheckPriceInputResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	var priceMsg types.PriceMessage
	err := branch(ctx, func(cacheCtx sdk.Context) (err error) {
		priceMsg, err = ms.Keeper.CheckPriceInput(cacheCtx, msg.Message, msg.Signature)
		return err
	}, onSuccess)
	if err != nil {
		return nil, err
	}

	return &types.MsgCheckPriceInputResponse{PriceMessage: priceMsg}, nil
}

// CheckPricesInput verifies a signed batch and consumes every nonce in it.
// A batch rejected for a reused nonce keeps the nonces it consumed before
// the collision.
func (ms msgServer) CheckPricesInput(goCtx context.Context, msg *types.MsgCheckPricesInput) (*types.MsgCheckPricesInputResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	var priceMsgs []types.PriceMessage
	err := branch(ctx, func(cacheCtx sdk.Context) (err error) {
		priceMsgs, err = ms.Keeper.CheckPricesInput(cacheCtx, msg.Message, msg.Signature)
		return err
	}, func(err error) bool {
		return err == nil || types.ErrNonceReused.Is(err)
	})
	if err != nil {
		return nil, err
	}

	return &types.MsgCheckPricesInputResponse{PriceMessages: priceMsgs}, nil
}

// SetOraclePublicKey rotates the authorized key. Only the holder of the admin
// badge may call it.
func (ms msgServer) SetOraclePublicKey(goCtx context.Context, msg *types.MsgSetOraclePublicKey) (*types.MsgSetOraclePublicKeyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	if !ms.AuthenticateAdminBadge(ctx, msg.AdminBadge) {
		return nil, types.WrapWithRecovery(types.ErrUnauthorized, "admin badge failed authentication")
	}

	err := branch(ctx, func(cacheCtx sdk.Context) error {
		return ms.Keeper.SetOraclePublicKey(cacheCtx, msg.PublicKey)
	}, onSuccess)
	if err != nil {
		return nil, err
	}

	return &types.MsgSetOraclePublicKeyResponse{}, nil
}
