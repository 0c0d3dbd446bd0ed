// Package types defines the value types shared by the counterberry client core.
//
// # Core Types
//
// Handle: 32-byte on-ledger reference to a ciphertext. The all-zero handle is what
// the counter contract returns before its first write and decrypts to zero.
//
// ClearValue: A decrypted counter value, always tagged with the Handle it was
// recovered from. A ClearValue whose tag differs from the current handle is unknown.
//
// NetworkSnapshot: The {chain id, signer} pair captured before an asynchronous step.
// It is a plain comparable value; staleness is decided with ==.
//
// AuthorizationStatement / Capability: The statement a signer approves to let the
// engine decrypt values of one contract for one identity during a time window, and
// the signed result.
//
// EncryptedInput / Receipt: Engine output submitted to the ledger, and the ledger's
// terminal answer for a mutating transaction.
//
// # Signing
//
// Statements are hashed with Keccak-256 over a domain tag and length-prefixed fields.
// Signatures are 65-byte secp256k1 [R || S || V] values; the signer is recovered
// from the signature rather than trusted from the statement.
//
// # Immutability
//
// Constructors copy their byte inputs. Handles are arrays and are copied on
// assignment, so snapshots can be shared freely between goroutines.
package types
