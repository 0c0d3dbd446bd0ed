package controller

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/blockberries/counterberry/types"
)

// Mutate adds delta to the counter: it encrypts |delta|, submits an increment
// or decrement and waits for the receipt. On success the known handle is
// cleared; the clear value stays but no longer counts as decrypted.
func (c *Controller) Mutate(ctx context.Context, delta int64) error {
	if err := types.ValidateDelta(delta); err != nil {
		return c.reject(opMutate, newError(CodeInvalidDelta, fmt.Sprintf("mutate(%s)", formatDelta(delta)), err))
	}

	attrs := []attribute.KeyValue{attribute.Int64("counter.delta", delta)}
	committed, err := c.run(ctx, Mutating, opMutate, attrs, func(ctx context.Context, op *opContext) error {
		return c.mutate(ctx, op, delta)
	})
	if err != nil || !committed || !c.config.RefreshAfterMutate {
		return err
	}
	// The mutation is on chain; losing the follow-up admission is not a failure.
	if err := c.RefreshHandle(ctx); err != nil && !errors.Is(err, ErrNotReady) {
		return err
	}
	return nil
}

func (c *Controller) mutate(ctx context.Context, op *opContext, delta int64) error {
	magnitude, increment := types.SplitDelta(delta)
	label := fmt.Sprintf("mutate(%s)", formatDelta(delta))

	c.progress(fmt.Sprintf("Encrypting %d...", magnitude))
	encCtx, cancel := withTimeout(ctx, c.config.Timeouts.Encrypt)
	input, err := c.engine.EncryptInput(encCtx, magnitude, c.contract, op.s0.Signer)
	cancel()
	if err != nil {
		return c.fail(op.s0, newError(CodeMutationFailed, label+": encryption failed", err))
	}
	if !c.guard.Matches(op.s0) {
		return errStaleResult
	}

	c.progress(fmt.Sprintf("Submitting %s...", label))
	subCtx, cancel := withTimeout(ctx, c.config.Timeouts.Submit)
	tx, err := c.submitter.SubmitMutation(subCtx, c.contract, input, increment)
	cancel()
	if err != nil {
		return c.fail(op.s0, newError(CodeMutationFailed, label+": submission failed", err))
	}
	op.logger.Debug().Str("tx", tx.Hex()).Msg("mutation submitted")

	c.progress("Waiting for transaction " + tx.Hex() + "...")
	waitCtx, cancel := withTimeout(ctx, c.config.Timeouts.Confirm)
	receipt, err := c.submitter.WaitReceipt(waitCtx, tx)
	cancel()
	if err != nil {
		return c.fail(op.s0, newError(CodeMutationFailed, label+": confirmation failed", err))
	}
	if !receipt.Succeeded() {
		return c.fail(op.s0, newError(CodeMutationFailed, label+": transaction reverted", errors.New(tx.Hex())))
	}

	return c.commit(op.s0, func() {
		c.handle = types.Handle{}
		c.hasHandle = false
		c.message = fmt.Sprintf("%s completed in block %d", label, receipt.BlockNumber)
	})
}

// reject reports an error for an operation that was never admitted.
// The message is only written while idle.
func (c *Controller) reject(name string, err error) error {
	c.mu.Lock()
	idle := c.state == Idle
	if idle {
		c.message = err.Error()
	}
	fn, snap := c.listener, c.snapshotLocked()
	c.mu.Unlock()

	if idle {
		c.emit(fn, snap)
	}
	c.metrics.ObserveRejection(name, string(CodeOf(err)))
	return err
}
