package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	keepertest "github.com/0xOmarA/radix-oracle-contracts/testutil/keeper"
	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

func (suite *KeeperTestSuite) TestCheckPriceInput() {
	message := "42|BTC|65000|1700000000"

	msg, err := suite.keeper.CheckPriceInput(suite.ctx, message, suite.sign(message))
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(42), msg.Nonce)
	suite.Require().Equal("BTC", msg.Symbol)
	suite.Require().True(sdkmath.LegacyNewDec(65000).Equal(msg.Price))
	suite.Require().Equal(uint64(1700000000), msg.Timestamp)

	used, err := suite.keeper.IsNonceUsed(suite.ctx, 42)
	suite.Require().NoError(err)
	suite.Require().True(used)

	// Replaying the identical signed message is rejected.
	_, err = suite.keeper.CheckPriceInput(suite.ctx, message, suite.sign(message))
	suite.Require().ErrorIs(err, types.ErrNonceReused)

	// A fresh nonce is accepted.
	next := "43|BTC|65010|1700000060"
	_, err = suite.keeper.CheckPriceInput(suite.ctx, next, suite.sign(next))
	suite.Require().NoError(err)

	count, err := suite.keeper.UsedNonceCount(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(2), count)
}

func (suite *KeeperTestSuite) TestCheckPriceInputVerifiesFirst() {
	other := keepertest.TestSigner(suite.T(), "attacker")

	testCases := []struct {
		name      string
		message   string
		signature string
		err       error
	}{
		{
			name:      "wrong signer",
			message:   "1|BTC|1|1",
			signature: keepertest.Sign(suite.T(), other, "1|BTC|1|1"),
			err:       types.ErrInvalidSignature,
		},
		{
			name:      "signature over another message",
			message:   "1|BTC|2|1",
			signature: suite.sign("1|BTC|1|1"),
			err:       types.ErrInvalidSignature,
		},
		{
			name:      "undecodable signature",
			message:   "1|BTC|1|1",
			signature: "zz",
			err:       types.ErrInvalidSignature,
		},
		{
			name:      "truncated signature",
			message:   "1|BTC|1|1",
			signature: suite.sign("1|BTC|1|1")[:190],
			err:       types.ErrInvalidSignature,
		},
		{
			// Garbage with a bad signature is reported as a signature failure.
			name:      "malformed and unsigned",
			message:   "garbage",
			signature: keepertest.Sign(suite.T(), other, "garbage"),
			err:       types.ErrInvalidSignature,
		},
		{
			name:      "malformed but signed",
			message:   "abc|BTC|1|1",
			signature: suite.sign("abc|BTC|1|1"),
			err:       types.ErrMalformedMessage,
		},
		{
			name:      "negative price",
			message:   "1|BTC|-1|1",
			signature: suite.sign("1|BTC|-1|1"),
			err:       types.ErrMalformedMessage,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.keeper.CheckPriceInput(suite.ctx, tc.message, tc.signature)
			suite.Require().ErrorIs(err, tc.err)
		})
	}

	count, err := suite.keeper.UsedNonceCount(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Zero(count)
}

func (suite *KeeperTestSuite) TestCheckPricesInput() {
	batch := "1|BTC|65000|1700000000,2|ETH|3500.25|1700000000,3|XRD|0.05|1700000000"

	msgs, err := suite.keeper.CheckPricesInput(suite.ctx, batch, suite.sign(batch))
	suite.Require().NoError(err)
	suite.Require().Len(msgs, 3)
	suite.Require().Equal("ETH", msgs[1].Symbol)
	suite.Require().True(sdkmath.LegacyMustNewDecFromStr("3500.25").Equal(msgs[1].Price))
	suite.Require().Equal(batch, types.EncodePriceMessages(msgs))

	for _, n := range []uint64{1, 2, 3} {
		used, err := suite.keeper.IsNonceUsed(suite.ctx, n)
		suite.Require().NoError(err)
		suite.Require().True(used)
	}
}

func (suite *KeeperTestSuite) TestCheckPricesInputSingleSignature() {
	a, b := "1|BTC|1|1", "2|ETH|1|1"

	// Each sub-message signed on its own does not authorize the batch.
	_, err := suite.keeper.CheckPricesInput(suite.ctx, a+","+b, suite.sign(a))
	suite.Require().ErrorIs(err, types.ErrInvalidSignature)

	// Reordering a signed batch invalidates the signature.
	_, err = suite.keeper.CheckPricesInput(suite.ctx, b+","+a, suite.sign(a+","+b))
	suite.Require().ErrorIs(err, types.ErrInvalidSignature)

	count, err := suite.keeper.UsedNonceCount(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Zero(count)
}

func (suite *KeeperTestSuite) TestCheckPricesInputMalformedSubMessage() {
	batch := "1|BTC|1|1,2|ETH|1"

	_, err := suite.keeper.CheckPricesInput(suite.ctx, batch, suite.sign(batch))
	suite.Require().ErrorIs(err, types.ErrMalformedMessage)
	suite.Require().Contains(err.Error(), "sub-message 1")

	// Parsing fails before any nonce is consumed.
	used, err := suite.keeper.IsNonceUsed(suite.ctx, 1)
	suite.Require().NoError(err)
	suite.Require().False(used)
}

func (suite *KeeperTestSuite) TestCheckPricesInputDuplicateWithinBatch() {
	batch := "7|BTC|1|1,8|ETH|1|1,7|XRD|1|1"

	_, err := suite.keeper.CheckPricesInput(suite.ctx, batch, suite.sign(batch))
	suite.Require().ErrorIs(err, types.ErrNonceReused)

	// Nonces consumed before the collision stay consumed at the keeper level.
	for _, n := range []uint64{7, 8} {
		used, err := suite.keeper.IsNonceUsed(suite.ctx, n)
		suite.Require().NoError(err)
		suite.Require().True(used)
	}
	count, err := suite.keeper.UsedNonceCount(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(2), count)
}

func (suite *KeeperTestSuite) TestCheckPricesInputCollidesWithSingle() {
	single := "5|BTC|1|1"
	_, err := suite.keeper.CheckPriceInput(suite.ctx, single, suite.sign(single))
	suite.Require().NoError(err)

	batch := "4|BTC|1|1,5|ETH|1|1,6|XRD|1|1"
	_, err = suite.keeper.CheckPricesInput(suite.ctx, batch, suite.sign(batch))
	suite.Require().ErrorIs(err, types.ErrNonceReused)

	used, err := suite.keeper.IsNonceUsed(suite.ctx, 4)
	suite.Require().NoError(err)
	suite.Require().True(used)

	used, err = suite.keeper.IsNonceUsed(suite.ctx, 6)
	suite.Require().NoError(err)
	suite.Require().False(used)
}

func (suite *KeeperTestSuite) TestRotationIsolation() {
	next := keepertest.TestSigner(suite.T(), "next")
	suite.Require().NoError(suite.keeper.SetOraclePublicKey(suite.ctx, next.PublicKey().String()))

	message := "100|BTC|1|1"
	_, err := suite.keeper.CheckPriceInput(suite.ctx, message, suite.sign(message))
	suite.Require().ErrorIs(err, types.ErrInvalidSignature)

	_, err = suite.keeper.CheckPriceInput(suite.ctx, message, keepertest.Sign(suite.T(), next, message))
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestRotationKeepsNonces() {
	message := "9|BTC|1|1"
	_, err := suite.keeper.CheckPriceInput(suite.ctx, message, suite.sign(message))
	suite.Require().NoError(err)

	next := keepertest.TestSigner(suite.T(), "next")
	suite.Require().NoError(suite.keeper.SetOraclePublicKey(suite.ctx, next.PublicKey().String()))

	_, err = suite.keeper.CheckPriceInput(suite.ctx, message, keepertest.Sign(suite.T(), next, message))
	suite.Require().ErrorIs(err, types.ErrNonceReused)
}

func (suite *KeeperTestSuite) TestIterateUsedNonces() {
	batch := "30|A|1|1,10|B|1|1,20|C|1|1"
	_, err := suite.keeper.CheckPricesInput(suite.ctx, batch, suite.sign(batch))
	suite.Require().NoError(err)

	var seen []uint64
	suite.Require().NoError(suite.keeper.IterateUsedNonces(suite.ctx, func(n uint64) bool {
		seen = append(seen, n)
		return false
	}))
	suite.Require().Equal([]uint64{10, 20, 30}, seen)
}
