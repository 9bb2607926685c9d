package localdag

import (
	"errors"
	"testing"
	"time"

	"github.com/triadag/triad/block"
	"github.com/triadag/triad/daghash"
)

var errBoom = errors.New("boom")

func hashFromByte(b byte) daghash.Hash {
	var h daghash.Hash
	h[0] = b
	return h
}

func TestAddNewBlockAcceptsWhenParentsKnown(t *testing.T) {
	genesis := hashFromByte(1)
	d := New(genesis)

	hdr := block.NewHeader(hashFromByte(2), genesis, genesis, genesis, time.Now())
	if err := d.AddNewBlock(hdr, nil); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.GetBestMilestoneHeight() != 1 {
		t.Fatalf("expected height 1, got %d", d.GetBestMilestoneHeight())
	}
}

func TestAddNewBlockOrphansOnMissingParent(t *testing.T) {
	genesis := hashFromByte(1)
	d := New(genesis)

	missing := hashFromByte(9)
	hdr := block.NewHeader(hashFromByte(2), missing, genesis, genesis, time.Now())
	if err := d.AddNewBlock(hdr, nil); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.GetBestMilestoneHeight() != 0 {
		t.Fatalf("expected block to be withheld as an orphan, height=%d", d.GetBestMilestoneHeight())
	}

	// Submitting the missing hash should release the orphan.
	releaseHdr := block.NewHeader(missing, genesis, genesis, genesis, time.Now())
	if err := d.AddNewBlock(releaseHdr, nil); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.GetBestMilestoneHeight() != 2 {
		t.Fatalf("expected both blocks accepted after release, height=%d", d.GetBestMilestoneHeight())
	}
}

type fakeTx struct {
	verifyErr error
}

func (f fakeTx) Verify() error { return f.verifyErr }

func TestMempoolRejectsFailedVerification(t *testing.T) {
	m := NewMempool()
	accepted, err := m.ReceiveTransaction(fakeTx{verifyErr: errBoom})
	if err == nil {
		t.Fatal("expected verification error to propagate")
	}
	if accepted {
		t.Fatal("expected rejection on verification failure")
	}
}

func TestMempoolAcceptsValidTransaction(t *testing.T) {
	m := NewMempool()
	accepted, err := m.ReceiveTransaction(fakeTx{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !accepted {
		t.Fatal("expected acceptance")
	}
}

func TestTransactionDecoderWrapsPayload(t *testing.T) {
	d := NewTransactionDecoder()
	tx, err := d.Decode([]byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	if err := tx.Verify(); err != nil {
		t.Fatalf("expected non-empty payload to verify, got %s", err)
	}
}

func TestTransactionVerifyRejectsEmptyPayload(t *testing.T) {
	tx := &Transaction{}
	if err := tx.Verify(); err == nil {
		t.Fatal("expected empty payload to fail verification")
	}
}

