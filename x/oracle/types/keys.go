package types

const (
	// ModuleName defines the module name
	ModuleName = "oracle"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// AdminBadgeName is the capability name of the single admin badge that
	// authorizes public key rotation.
	AdminBadgeName = "admin_badge"
)

var (
	// PublicKeyKey is the key of the authorized signer's public key (raw compressed bytes)
	PublicKeyKey = []byte{0x01}

	// UsedNonceKeyPrefix is the prefix for consumed price message nonces
	UsedNonceKeyPrefix = []byte{0x02}

	// UsedNonceCountKey holds the number of consumed nonces
	UsedNonceCountKey = []byte{0x03}
)
