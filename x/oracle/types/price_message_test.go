package types

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParsePriceMessage(t *testing.T) {
	msg, err := ParsePriceMessage("42|BTC|65000|1700000000")
	require.NoError(t, err)
	require.Equal(t, uint64(42), msg.Nonce)
	require.Equal(t, "BTC", msg.Symbol)
	require.True(t, sdkmath.LegacyNewDec(65000).Equal(msg.Price))
	require.Equal(t, uint64(1700000000), msg.Timestamp)
	require.Equal(t, "42|BTC|65000|1700000000", msg.String())
}

func TestParsePriceMessageFractional(t *testing.T) {
	msg, err := ParsePriceMessage("0|XRD/USD|0.052300|18446744073709551615")
	require.NoError(t, err)
	require.Equal(t, uint64(0), msg.Nonce)
	require.Equal(t, "XRD/USD", msg.Symbol)
	require.True(t, sdkmath.LegacyMustNewDecFromStr("0.0523").Equal(msg.Price))
	require.Equal(t, uint64(18446744073709551615), msg.Timestamp)
	require.Equal(t, "0|XRD/USD|0.0523|18446744073709551615", msg.String())
}

func TestParsePriceMessageMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"too few fields", "42|BTC|65000"},
		{"too many fields", "42|BTC|65000|1700000000|x"},
		{"non-numeric nonce", "abc|BTC|65000|1700000000"},
		{"negative nonce", "-1|BTC|65000|1700000000"},
		{"signed nonce", "+1|BTC|65000|1700000000"},
		{"nonce overflow", "18446744073709551616|BTC|65000|1700000000"},
		{"padded nonce", " 42|BTC|65000|1700000000"},
		{"empty symbol", "42||65000|1700000000"},
		{"symbol with space", "42|B TC|65000|1700000000"},
		{"symbol with control", "42|BT\x01C|65000|1700000000"},
		{"symbol with invalid utf8", "42|\xff\xfe|65000|1700000000"},
		{"symbol with truncated rune", "42|BTC\xe2\x82|65000|1700000000"},
		{"long symbol", "42|" + strings.Repeat("A", 129) + "|65000|1700000000"},
		{"empty price", "42|BTC||1700000000"},
		{"negative price", "42|BTC|-1|1700000000"},
		{"signed price", "42|BTC|+1|1700000000"},
		{"non-numeric price", "42|BTC|lots|1700000000"},
		{"too precise price", "42|BTC|0.0000000000000000001|1700000000"},
		{"non-numeric timestamp", "42|BTC|65000|soon"},
		{"empty timestamp", "42|BTC|65000|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePriceMessage(tt.raw)
			require.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestParsePriceMessages(t *testing.T) {
	msgs, err := ParsePriceMessages("1|BTC|65000|1700000000,2|ETH|3500|1700000001")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, uint64(1), msgs[0].Nonce)
	require.Equal(t, "ETH", msgs[1].Symbol)

	single, err := ParsePriceMessages("7|BTC|1|1")
	require.NoError(t, err)
	require.Len(t, single, 1)
}

func TestParsePriceMessagesMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		",",
		"1|BTC|1|1,",
		"1|BTC|1|1,,2|ETH|1|1",
		"1|BTC|1|1,2|ETH|x|1",
	} {
		_, err := ParsePriceMessages(raw)
		require.ErrorIs(t, err, ErrMalformedMessage, raw)
	}

	_, err := ParsePriceMessages("1|BTC|1|1,2|ETH|x|1")
	require.Contains(t, err.Error(), "sub-message 1")
}

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "65000", FormatPrice(sdkmath.LegacyNewDec(65000)))
	require.Equal(t, "0.5", FormatPrice(sdkmath.LegacyMustNewDecFromStr("0.500")))
	require.Equal(t, "0", FormatPrice(sdkmath.LegacyZeroDec()))
	require.Equal(t, "0", FormatPrice(sdkmath.LegacyDec{}))
}

func symbolGen() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z0-9/._-]{1,16}`)
}

func priceGen() *rapid.Generator[sdkmath.LegacyDec] {
	return rapid.Custom(func(t *rapid.T) sdkmath.LegacyDec {
		whole := rapid.Uint64Range(0, 1_000_000_000).Draw(t, "whole")
		frac := rapid.Uint64Range(0, 999_999_999_999_999_999).Draw(t, "frac")
		return sdkmath.LegacyMustNewDecFromStr(fmt.Sprintf("%d.%018d", whole, frac))
	})
}

func priceMessageGen() *rapid.Generator[PriceMessage] {
	return rapid.Custom(func(t *rapid.T) PriceMessage {
		return PriceMessage{
			Nonce:     rapid.Uint64().Draw(t, "nonce"),
			Symbol:    symbolGen().Draw(t, "symbol"),
			Price:     priceGen().Draw(t, "price"),
			Timestamp: rapid.Uint64().Draw(t, "timestamp"),
		}
	})
}

func TestPropertyParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := priceMessageGen().Draw(t, "msg")

		parsed, err := ParsePriceMessage(msg.String())
		require.NoError(t, err)
		require.Equal(t, msg.Nonce, parsed.Nonce)
		require.Equal(t, msg.Symbol, parsed.Symbol)
		require.True(t, msg.Price.Equal(parsed.Price))
		require.Equal(t, msg.Timestamp, parsed.Timestamp)
		require.Equal(t, msg.String(), parsed.String())
	})
}

func TestPropertyBatchRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msgs := rapid.SliceOfN(priceMessageGen(), 1, 8).Draw(t, "msgs")

		raw := EncodePriceMessages(msgs)
		parsed, err := ParsePriceMessages(raw)
		require.NoError(t, err)
		require.Len(t, parsed, len(msgs))
		require.Equal(t, raw, EncodePriceMessages(parsed))
	})
}

func TestPropertyParsedSymbolIsExact(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		symbol := string(rapid.SliceOfN(rapid.Byte(), 1, 16).Draw(t, "symbol"))

		msg, err := ParsePriceMessage("1|" + symbol + "|1|1")
		if err != nil {
			require.ErrorIs(t, err, ErrMalformedMessage)
			return
		}
		require.True(t, utf8.ValidString(msg.Symbol))
		require.Equal(t, symbol, msg.Symbol)
	})
}
