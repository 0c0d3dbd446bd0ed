// Package signer implements the signing identity that approves decryption
// authorizations.
//
// # Core Interface
//
//	type Signer interface {
//	    Address() common.Address
//	    SignAuthorization(ctx context.Context, stmt types.AuthorizationStatement) ([]byte, error)
//	}
//
// SignAuthorization is a user-facing prompt in interactive wallets: it may block for
// as long as the user takes to decide, and it may be declined. A decline is reported
// as an error wrapping ErrDeclined.
//
// # Implementation
//
// FileSigner: secp256k1 key persisted as JSON, generated on first use.
//
//	{
//	  "address": "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4",
//	  "priv_key": "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"
//	}
//
// The file is written to a temporary sibling and renamed into place, so a crash
// never leaves a truncated key behind.
//
// # Security Considerations
//
//	- Key file is created with 0600 permissions
//	- Never log or expose the private key
//	- FileSigner refuses statements naming another signer, so a stale statement
//	  built before an account switch cannot be signed by the new account
//
// # Usage Example
//
//	s, err := signer.NewFileSigner("data/key.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stmt := types.NewAuthorizationStatement(pub, contract, s.Address(), chainID, time.Now(), 24*time.Hour)
//	sig, err := s.SignAuthorization(ctx, stmt)
package signer
