// Package controller implements the encrypted counter state machine.
//
// A Controller tracks the counter's encrypted handle, its decrypted clear
// value and a status message, and exposes three operations: Mutate,
// RefreshHandle and Decrypt. Operations are single-flight. Each one records
// the chain and signer it started under and drops its result if either has
// changed by the time it resumes, so a wallet switch never leaks a value or
// a handle into the new context.
//
// Collaborators (encryption engine, ledger reader, transaction submitter,
// signer) are consumed through small interfaces. Decryption authorizations
// are cached in a sigcache.Cache and reused until they expire.
package controller
