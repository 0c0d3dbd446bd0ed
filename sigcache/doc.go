// Package sigcache stores decryption capabilities between decrypt operations.
//
// A capability is looked up by Key{contract, signer, engine public key}. Lookup
// returns nothing when the entry is absent, outside its validity window, bound to a
// different contract or signer than the key, or issued for a signer other than the
// one the guard currently reports. Expired and mis-bound entries are deleted during
// the lookup that finds them; there is no background sweep and no capacity bound,
// since one entry per contract and identity is the expected working set.
//
// # Storage
//
// Cache delegates persistence to a Store:
//
//	- MemoryStore: process-local map (default).
//	- BoltStore: bbolt file, records encoded with RLP. Lets a user keep an
//	  approved capability across restarts instead of being prompted again.
//
// # Thread Safety
//
// Cache and both stores are safe for concurrent use. The controller's single-flight
// admission means at most one operation touches the cache at a time per controller.
package sigcache
