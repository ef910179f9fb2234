package api

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xOmarA/radix-oracle-contracts/app"
	oracletypes "github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

// Backend is the oracle host the API serves.
type Backend interface {
	CheckPriceInput(ctx context.Context, msg *oracletypes.MsgCheckPriceInput) (*oracletypes.MsgCheckPriceInputResponse, error)
	CheckPricesInput(ctx context.Context, msg *oracletypes.MsgCheckPricesInput) (*oracletypes.MsgCheckPricesInputResponse, error)
	RotatePublicKey(ctx context.Context, publicKey string) error
	Status(ctx context.Context) (app.Status, error)
	IsNonceUsed(ctx context.Context, nonce uint64) (bool, error)
	Subscribe(h app.EventHandler)
}

var _ Backend = (*app.OracleApp)(nil)

// ==================== Price Types ====================

// CheckPriceRequest carries a signed wire message, single or batch.
type CheckPriceRequest struct {
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// PriceResponse is a verified price message.
type PriceResponse struct {
	Nonce     uint64 `json:"nonce"`
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Timestamp uint64 `json:"timestamp"`
}

// CheckPricesResponse lists verified messages in batch order.
type CheckPricesResponse struct {
	Prices []PriceResponse `json:"prices"`
}

// NonceResponse reports whether a nonce has been consumed.
type NonceResponse struct {
	Nonce uint64 `json:"nonce"`
	Used  bool   `json:"used"`
}

func newPriceResponse(msg oracletypes.PriceMessage) PriceResponse {
	return PriceResponse{
		Nonce:     msg.Nonce,
		Symbol:    msg.Symbol,
		Price:     oracletypes.FormatPrice(msg.Price),
		Timestamp: msg.Timestamp,
	}
}

// ==================== Admin Types ====================

// RotateKeyRequest replaces the authorized public key.
type RotateKeyRequest struct {
	PublicKey string `json:"public_key" binding:"required"`
}

// ==================== WebSocket Types ====================

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WSSubscribeMessage represents a subscription message
type WSSubscribeMessage struct {
	Type    string `json:"type"`    // "subscribe" or "unsubscribe"
	Channel string `json:"channel"` // an event type, e.g. "public_key_rotated"
}

func newEventMessage(event sdk.Event) WSMessage {
	attrs := make(map[string]string, len(event.Attributes))
	for _, attr := range event.Attributes {
		attrs[attr.Key] = attr.Value
	}
	return WSMessage{
		Type:    "event",
		Channel: event.Type,
		Data:    attrs,
	}
}

// ==================== Common Response Types ====================

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Details  string `json:"details,omitempty"`
	Recovery string `json:"recovery,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
