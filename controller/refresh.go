package controller

import (
	"context"

	"github.com/blockberries/counterberry/types"
)

// RefreshHandle reads the counter's current handle from the ledger.
// A changed handle invalidates the decrypted value.
func (c *Controller) RefreshHandle(ctx context.Context) error {
	_, err := c.run(ctx, Refreshing, opRefresh, nil, c.refresh)
	return err
}

func (c *Controller) refresh(ctx context.Context, op *opContext) error {
	c.progress("Reading handle...")
	readCtx, cancel := withTimeout(ctx, c.config.Timeouts.Read)
	h, err := c.reader.ReadHandle(readCtx, c.contract)
	cancel()
	if err != nil {
		return c.fail(op.s0, newError(CodeReadFailed, "refresh: reading handle failed", err))
	}

	return c.commit(op.s0, func() {
		if !c.hasHandle || c.handle != h {
			c.hasClear = false
			c.clear = types.ClearValue{}
		}
		c.handle = h
		c.hasHandle = true
		c.message = "Handle " + h.Hex()
		op.logger.Debug().Str("handle", h.Hex()).Msg("handle refreshed")
	})
}
