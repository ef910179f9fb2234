package types

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// Wire format (v1) of a signed price attestation:
//
//	<nonce>|<symbol>|<price>|<timestamp>
//
// Batches join individual messages with BatchSeparator and are signed as a
// whole. The layout is consumed by off-chain signers and must not change
// without a version marker.
const (
	FieldDelimiter = "|"
	BatchSeparator = ","

	priceMessageFieldCount = 4
	maxSymbolLength        = 128
)

// PriceMessage is one attested price point.
type PriceMessage struct {
	Nonce     uint64            `json:"nonce"`
	Symbol    string            `json:"symbol"`
	Price     sdkmath.LegacyDec `json:"price"`
	Timestamp uint64            `json:"timestamp"`
}

// ParsePriceMessage decodes a single wire message. Either every field parses
// or the whole message is rejected with ErrMalformedMessage.
func ParsePriceMessage(raw string) (PriceMessage, error) {
	fields := strings.Split(raw, FieldDelimiter)
	if len(fields) != priceMessageFieldCount {
		return PriceMessage{}, ErrMalformedMessage.Wrapf(
			"expected %d fields separated by %q, got %d", priceMessageFieldCount, FieldDelimiter, len(fields))
	}

	nonce, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return PriceMessage{}, ErrMalformedMessage.Wrapf("nonce %q: %v", fields[0], err)
	}

	symbol := fields[1]
	if err := validateSymbol(symbol); err != nil {
		return PriceMessage{}, err
	}

	price, err := parsePrice(fields[2])
	if err != nil {
		return PriceMessage{}, err
	}

	timestamp, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return PriceMessage{}, ErrMalformedMessage.Wrapf("timestamp %q: %v", fields[3], err)
	}

	return PriceMessage{
		Nonce:     nonce,
		Symbol:    symbol,
		Price:     price,
		Timestamp: timestamp,
	}, nil
}

// ParsePriceMessages splits a batch on BatchSeparator and parses every
// sub-message in order. A single malformed sub-message fails the batch.
func ParsePriceMessages(raw string) ([]PriceMessage, error) {
	parts := strings.Split(raw, BatchSeparator)
	msgs := make([]PriceMessage, 0, len(parts))
	for i, part := range parts {
		msg, err := ParsePriceMessage(part)
		if err != nil {
			return nil, sdkerrors.Wrapf(err, "sub-message %d", i)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// String returns the wire encoding of the message.
func (m PriceMessage) String() string {
	return strings.Join([]string{
		strconv.FormatUint(m.Nonce, 10),
		m.Symbol,
		FormatPrice(m.Price),
		strconv.FormatUint(m.Timestamp, 10),
	}, FieldDelimiter)
}

// EncodePriceMessages returns the batch wire encoding of msgs.
func EncodePriceMessages(msgs []PriceMessage) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.String()
	}
	return strings.Join(parts, BatchSeparator)
}

// FormatPrice renders a decimal without trailing fractional zeros.
func FormatPrice(price sdkmath.LegacyDec) string {
	if price.IsNil() {
		return "0"
	}
	s := price.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func parsePrice(s string) (sdkmath.LegacyDec, error) {
	// LegacyNewDecFromStr tolerates a leading sign; the wire format does not.
	if s == "" || s[0] == '+' || s[0] == '-' {
		return sdkmath.LegacyDec{}, ErrMalformedMessage.Wrapf("price %q: expected unsigned decimal", s)
	}
	price, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return sdkmath.LegacyDec{}, ErrMalformedMessage.Wrapf("price %q: %v", s, err)
	}
	return price, nil
}

func validateSymbol(symbol string) error {
	if symbol == "" {
		return ErrMalformedMessage.Wrap("symbol cannot be empty")
	}
	if len(symbol) > maxSymbolLength {
		return ErrMalformedMessage.Wrapf("symbol exceeds %d bytes", maxSymbolLength)
	}
	if !utf8.ValidString(symbol) {
		return ErrMalformedMessage.Wrapf("symbol %q is not valid UTF-8", symbol)
	}
	for _, r := range symbol {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return ErrMalformedMessage.Wrapf("symbol %q contains whitespace or control characters", symbol)
		}
		if strings.ContainsRune(FieldDelimiter+BatchSeparator, r) {
			return ErrMalformedMessage.Wrapf("symbol %q contains a reserved separator", symbol)
		}
	}
	return nil
}
