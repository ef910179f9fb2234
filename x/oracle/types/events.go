package types

// Event types for the Oracle module
const (
	EventTypePublicKeyRotated = "public_key_rotated"
)

// Event attribute keys for the Oracle module
const (
	AttributeKeyNewPublicKey = "new_public_key"
)
