// Package keeper implements the Oracle module keeper: verification and replay
// protection for externally signed price attestations.
//
// # Core Functionality
//
// Signature Verification: every inbound message is checked against the single
// authorized BLS12-381 public key before any of its content is parsed. A batch
// is signed and verified once, as a whole.
//
// Replay Protection: each accepted message consumes its nonce. Consumed nonces
// are stored forever and are shared across key rotations.
//
// Key Rotation: the authorized key is replaced atomically by the holder of the
// admin badge, a capability issued exactly once at instantiation. Every
// rotation emits a public_key_rotated event.
//
// # Key Types
//
// Keeper: owns the authorized key and the used nonce set. Its methods trust
// their caller for authorization and transaction boundaries.
//
// MsgServer: the calling boundary. It authenticates the admin badge and runs
// each request in a cache context so a failed call leaves no state behind.
//
// # State
//
//	0x01            authorized public key (48 byte compressed G1 point)
//	0x02 | nonce    consumed nonce (8 byte big-endian)
//	0x03            number of consumed nonces
package keeper
