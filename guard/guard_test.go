package guard

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blockberries/counterberry/types"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func TestContextSnapshot(t *testing.T) {
	conn := NewConnection(31337, alice)
	g := New(conn)

	s := g.Snapshot()
	if s.ChainID != 31337 || s.Signer != alice {
		t.Errorf("unexpected snapshot %s", s)
	}
	if !g.Matches(s) {
		t.Error("fresh snapshot should match")
	}
}

func TestContextChainSwitch(t *testing.T) {
	conn := NewConnection(1, alice)
	g := New(conn)
	s0 := g.Snapshot()

	conn.SetChain(11155111)

	if g.MatchesChain(s0) {
		t.Error("MatchesChain should fail after chain switch")
	}
	if !g.MatchesSigner(s0) {
		t.Error("MatchesSigner should still hold after chain switch")
	}
	if g.Matches(s0) {
		t.Error("Matches requires both chain and signer")
	}
}

func TestContextAccountSwitch(t *testing.T) {
	conn := NewConnection(1, alice)
	g := New(conn)
	s0 := g.Snapshot()

	conn.SetAccount(bob)

	if !g.MatchesChain(s0) {
		t.Error("MatchesChain should still hold after account switch")
	}
	if g.MatchesSigner(s0) {
		t.Error("MatchesSigner should fail after account switch")
	}
	if g.Matches(s0) {
		t.Error("Matches should fail after account switch")
	}

	// Switching back restores the first context
	conn.SetAccount(alice)
	if !g.Matches(s0) {
		t.Error("Matches should hold again after switching back")
	}
}

func TestContextConnected(t *testing.T) {
	conn := NewConnection(1, alice)
	g := New(conn)
	if !g.Connected() {
		t.Error("expected connected")
	}

	conn.Disconnect()
	if g.Connected() {
		t.Error("expected disconnected after Disconnect")
	}
	if g.Signer() != (common.Address{}) || g.ChainID() != 0 {
		t.Error("Disconnect should clear chain and account")
	}
}

func TestConnectionOnChange(t *testing.T) {
	conn := NewConnection(1, alice)

	var seen []types.NetworkSnapshot
	conn.OnChange(func(s types.NetworkSnapshot) {
		seen = append(seen, s)
	})

	conn.SetAccount(bob)
	conn.SetChain(5)

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[0] != types.NewNetworkSnapshot(1, bob) {
		t.Errorf("unexpected first notification %s", seen[0])
	}
	if seen[1] != types.NewNetworkSnapshot(5, bob) {
		t.Errorf("unexpected second notification %s", seen[1])
	}
}
