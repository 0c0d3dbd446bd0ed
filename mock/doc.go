// Package mock provides an in-process encrypted counter chain: a coprocessor
// holding plaintexts behind handles, an encryption engine, a ledger hosting
// counter contracts and a multi-account wallet. It backs development servers
// and tests; nothing in it is confidential.
package mock
