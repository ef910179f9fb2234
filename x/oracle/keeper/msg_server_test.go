package keeper_test

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	capabilitytypes "github.com/cosmos/ibc-go/modules/capability/types"

	keepertest "github.com/0xOmarA/radix-oracle-contracts/testutil/keeper"
	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/keeper"
	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

func (suite *KeeperTestSuite) TestMsgCheckPriceInput() {
	ms := keeper.NewMsgServerImpl(suite.keeper)
	message := "42|BTC|65000|1700000000"

	resp, err := ms.CheckPriceInput(suite.ctx, &types.MsgCheckPriceInput{Message: message, Signature: suite.sign(message)})
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(42), resp.PriceMessage.Nonce)

	resp, err = ms.CheckPriceInput(suite.ctx, &types.MsgCheckPriceInput{Message: message, Signature: suite.sign(message)})
	suite.Require().ErrorIs(err, types.ErrNonceReused)
	suite.Require().Nil(resp)
	var withRecovery *types.ErrorWithRecovery
	suite.Require().ErrorAs(err, &withRecovery)
	suite.Require().Equal(types.RecoverySuggestions[types.ErrNonceReused], withRecovery.Recovery)

	_, err = ms.CheckPriceInput(suite.ctx, &types.MsgCheckPriceInput{Message: message})
	suite.Require().ErrorIs(err, types.ErrInvalidSignature)
}

func (suite *KeeperTestSuite) TestMsgCheckPricesInputCommitsBeforeCollision() {
	ms := keeper.NewMsgServerImpl(suite.keeper)
	batch := "1|BTC|1|1,2|ETH|1|1,1|XRD|1|1"

	_, err := ms.CheckPricesInput(suite.ctx, &types.MsgCheckPricesInput{Message: batch, Signature: suite.sign(batch)})
	suite.Require().ErrorIs(err, types.ErrNonceReused)

	for _, n := range []uint64{1, 2} {
		used, err := suite.keeper.IsNonceUsed(suite.ctx, n)
		suite.Require().NoError(err)
		suite.Require().True(used, "nonce %d", n)
	}

	// The committed nonces now block a corrected resubmission.
	fixed := "1|BTC|1|1,2|ETH|1|1,3|XRD|1|1"
	_, err = ms.CheckPricesInput(suite.ctx, &types.MsgCheckPricesInput{Message: fixed, Signature: suite.sign(fixed)})
	suite.Require().ErrorIs(err, types.ErrNonceReused)
}

func (suite *KeeperTestSuite) TestMsgCheckPricesInput() {
	ms := keeper.NewMsgServerImpl(suite.keeper)
	batch := "10|BTC|1|1,11|ETH|2|1"

	resp, err := ms.CheckPricesInput(suite.ctx, &types.MsgCheckPricesInput{Message: batch, Signature: suite.sign(batch)})
	suite.Require().NoError(err)
	suite.Require().Len(resp.PriceMessages, 2)

	count, err := suite.keeper.UsedNonceCount(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(2), count)
}

func (suite *KeeperTestSuite) TestMsgSetOraclePublicKey() {
	ms := keeper.NewMsgServerImpl(suite.keeper)
	ctx := suite.ctx.WithEventManager(sdk.NewEventManager())
	next := keepertest.TestSigner(suite.T(), "next")

	testCases := []struct {
		name  string
		msg   *types.MsgSetOraclePublicKey
		err   error
		event bool
	}{
		{
			name: "no badge",
			msg:  &types.MsgSetOraclePublicKey{PublicKey: next.PublicKey().String()},
			err:  types.ErrUnauthorized,
		},
		{
			name: "forged badge",
			msg: &types.MsgSetOraclePublicKey{
				AdminBadge: &capabilitytypes.Capability{Index: suite.badge.Index},
				PublicKey:  next.PublicKey().String(),
			},
			err: types.ErrUnauthorized,
		},
		{
			name: "invalid key",
			msg:  &types.MsgSetOraclePublicKey{AdminBadge: suite.badge, PublicKey: "abcd"},
			err:  types.ErrInvalidKeyEncoding,
		},
		{
			name:  "rotated",
			msg:   &types.MsgSetOraclePublicKey{AdminBadge: suite.badge, PublicKey: next.PublicKey().String()},
			event: true,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := ms.SetOraclePublicKey(ctx, tc.msg)
			if tc.err != nil {
				suite.Require().ErrorIs(err, tc.err)
				suite.Require().Empty(ctx.EventManager().Events())
				if tc.err == types.ErrUnauthorized {
					var withRecovery *types.ErrorWithRecovery
					suite.Require().ErrorAs(err, &withRecovery)
				}
				return
			}
			suite.Require().NoError(err)
			events := ctx.EventManager().Events()
			suite.Require().Len(events, 1)
			suite.Require().Equal(types.EventTypePublicKeyRotated, events[0].Type)
		})
	}

	pk, err := suite.keeper.GetPublicKey(ctx)
	suite.Require().NoError(err)
	suite.Require().True(pk.Equal(next.PublicKey()))
}
