package controller

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Binder keeps one controller per (engine, contract) binding. Rebinding to a
// different engine or contract discards the old controller and its state.
//
// Engine implementations must be comparable; pointer receivers are.
type Binder struct {
	mu sync.Mutex

	config *Config
	collab Collaborators

	current       *Controller
	currentEngine Engine
}

// NewBinder creates a binder. cfg.ContractAddress and collab.Engine are
// ignored; they are supplied to Bind.
func NewBinder(cfg *Config, collab Collaborators) *Binder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Binder{config: cfg, collab: collab}
}

// Bind returns the controller for engine and contract, building a fresh one
// if either changed since the last call
func (b *Binder) Bind(engine Engine, contract common.Address) (*Controller, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil && b.currentEngine == engine && b.current.contract == contract {
		return b.current, nil
	}

	cfg := *b.config
	cfg.ContractAddress = contract
	collab := b.collab
	collab.Engine = engine

	c, err := New(&cfg, collab)
	if err != nil {
		return nil, err
	}
	if b.current != nil {
		b.current.logger.Debug().Str("new_contract", contract.Hex()).Msg("controller replaced")
	}
	b.current = c
	b.currentEngine = engine
	return c, nil
}

// Current returns the last bound controller, or nil
func (b *Binder) Current() *Controller {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
