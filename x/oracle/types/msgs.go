package types

import (
	"context"

	capabilitytypes "github.com/cosmos/ibc-go/modules/capability/types"
)

// MsgCheckPriceInput submits one signed price message.
type MsgCheckPriceInput struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// MsgCheckPriceInputResponse carries the verified record.
type MsgCheckPriceInputResponse struct {
	PriceMessage PriceMessage `json:"price_message"`
}

// MsgCheckPricesInput submits a comma separated batch signed as a whole.
type MsgCheckPricesInput struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// MsgCheckPricesInputResponse carries the verified records in batch order.
type MsgCheckPricesInputResponse struct {
	PriceMessages []PriceMessage `json:"price_messages"`
}

// MsgSetOraclePublicKey rotates the authorized key. AdminBadge must be the
// capability issued at instantiation.
type MsgSetOraclePublicKey struct {
	AdminBadge *capabilitytypes.Capability `json:"-"`
	PublicKey  string                      `json:"public_key"`
}

// MsgSetOraclePublicKeyResponse is empty; the rotation is reported as an event.
type MsgSetOraclePublicKeyResponse struct{}

// ValidateBasic does stateless checks on the request envelope. The message
// itself is not inspected until its signature has been verified.
func (msg *MsgCheckPriceInput) ValidateBasic() error {
	return validateSignature(msg.Signature)
}

// ValidateBasic does stateless checks on the request envelope.
func (msg *MsgCheckPricesInput) ValidateBasic() error {
	return validateSignature(msg.Signature)
}

// ValidateBasic checks the badge is present and the key decodes.
func (msg *MsgSetOraclePublicKey) ValidateBasic() error {
	if msg.AdminBadge == nil {
		return ErrUnauthorized.Wrap("no admin badge presented")
	}
	_, err := ParsePublicKey(msg.PublicKey)
	return err
}

func validateSignature(signature string) error {
	if signature == "" {
		return ErrInvalidSignature.Wrap("signature cannot be empty")
	}
	return nil
}

// MsgServer is the calling boundary of the oracle.
type MsgServer interface {
	CheckPriceInput(context.Context, *MsgCheckPriceInput) (*MsgCheckPriceInputResponse, error)
	CheckPricesInput(context.Context, *MsgCheckPricesInput) (*MsgCheckPricesInputResponse, error)
	SetOraclePublicKey(context.Context, *MsgSetOraclePublicKey) (*MsgSetOraclePublicKeyResponse, error)
}
