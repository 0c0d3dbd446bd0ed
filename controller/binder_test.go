package controller

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestBinderReusesAndReplaces(t *testing.T) {
	r := makeTestRig(t)
	cfg := DefaultConfig()
	cfg.Now = r.clock.Now
	b := NewBinder(cfg, Collaborators{
		Reader:    r.ledger,
		Submitter: r.ledger,
		Signer:    r.signer,
		Guard:     r.ctrl.guard,
		Cache:     r.ctrl.cache,
	})

	first, err := b.Bind(r.engine, testContract)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := first.RefreshHandle(context.Background()); err != nil {
		t.Fatalf("RefreshHandle failed: %v", err)
	}

	again, err := b.Bind(r.engine, testContract)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if again != first {
		t.Fatal("unchanged binding should return the same controller")
	}
	if b.Current() != first {
		t.Error("Current should return the bound controller")
	}

	other := common.HexToAddress("0x0000000000000000000000000000000000000bad")
	moved, err := b.Bind(r.engine, other)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if moved == first {
		t.Fatal("new contract should produce a new controller")
	}
	if moved.ContractAddress() != other {
		t.Errorf("contract = %s, want %s", moved.ContractAddress().Hex(), other.Hex())
	}
	if moved.Snapshot().HasHandle {
		t.Error("a new binding should start empty")
	}

	engine2 := newFakeEngine(r.ledger)
	swapped, err := b.Bind(engine2, other)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if swapped == moved {
		t.Error("new engine should produce a new controller")
	}
}
