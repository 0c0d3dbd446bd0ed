package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blockberries/counterberry/guard"
	"github.com/blockberries/counterberry/mock"
	"github.com/blockberries/counterberry/types"
)

// fileSubmitter sends mutations on the mock ledger as the connection's account
type fileSubmitter struct {
	ledger *mock.Ledger
	conn   *guard.Connection
}

func (s *fileSubmitter) SubmitMutation(ctx context.Context, contract common.Address, input *types.EncryptedInput, increment bool) (common.Hash, error) {
	return s.ledger.Submit(ctx, s.conn.ChainID(), s.conn.Account(), contract, input, increment)
}

func (s *fileSubmitter) WaitReceipt(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	return s.ledger.WaitReceipt(ctx, tx)
}
