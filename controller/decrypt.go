package controller

import (
	"context"
	"fmt"

	"github.com/blockberries/counterberry/sigcache"
	"github.com/blockberries/counterberry/types"
)

// Decrypt recovers the clear value of the current handle. The signer is
// prompted only when no valid capability is cached for the current
// contract, signer and engine key.
func (c *Controller) Decrypt(ctx context.Context) error {
	_, err := c.run(ctx, Decrypting, opDecrypt, nil, c.decrypt)
	return err
}

func (c *Controller) decrypt(ctx context.Context, op *opContext) error {
	// The handle cannot change while Decrypting.
	c.mu.RLock()
	handle := c.handle
	c.mu.RUnlock()

	if handle.IsZero() {
		return c.commit(op.s0, func() {
			c.clear = types.ClearValue{Handle: handle, Value: 0}
			c.hasClear = true
			c.message = "Clear value is 0"
		})
	}

	capability, err := c.authorize(ctx, op)
	if err != nil {
		return err
	}

	c.progress("Decrypting...")
	decCtx, cancel := withTimeout(ctx, c.config.Timeouts.Decrypt)
	value, err := c.engine.Decrypt(decCtx, handle, capability)
	cancel()
	if err != nil {
		return c.fail(op.s0, newError(CodeDecryptionFailed, "decrypt: engine failed", err))
	}

	return c.commit(op.s0, func() {
		c.clear = types.ClearValue{Handle: handle, Value: value}
		c.hasClear = true
		c.message = fmt.Sprintf("Clear value is %d", value)
	})
}

// authorize returns a cached capability or prompts the signer for a new one
func (c *Controller) authorize(ctx context.Context, op *opContext) (*types.Capability, error) {
	pub := c.engine.PublicKey()
	key := sigcache.NewKey(c.contract, op.s0.Signer, pub)

	if capability, ok := c.cache.Lookup(ctx, key); ok {
		op.logger.Debug().Str("key", key.String()).Msg("using cached authorization")
		return capability, nil
	}

	stmt := types.NewAuthorizationStatement(pub, c.contract, op.s0.Signer, op.s0.ChainID, c.now(), c.config.AuthorizationValidity)

	c.progress("Requesting decryption authorization...")
	c.metrics.ObservePrompt()
	authCtx, cancel := withTimeout(ctx, c.config.Timeouts.Authorize)
	sig, err := c.signer.SignAuthorization(authCtx, stmt)
	cancel()
	if err != nil {
		return nil, c.fail(op.s0, newError(CodeAuthorizationDeclined, "decrypt: authorization declined", err))
	}

	capability, err := types.NewCapability(stmt, sig)
	if err == nil {
		err = capability.Verify()
	}
	if err != nil {
		return nil, c.fail(op.s0, newError(CodeAuthorizationDeclined, "decrypt: invalid authorization", err))
	}

	if err := c.cache.Store(ctx, key, capability); err != nil {
		op.logger.Warn().Err(err).Msg("failed to cache authorization")
	}
	if !c.guard.Matches(op.s0) {
		return nil, errStaleResult
	}
	return capability, nil
}
