// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package daghash

import (
	"bytes"
	"testing"
)

var mainNetGenesisHash = Hash([HashSize]byte{
	0xdc, 0x5f, 0x5b, 0x5b, 0x1d, 0xc2, 0xa7, 0x25,
	0x49, 0xd5, 0x1d, 0x4d, 0xee, 0xd7, 0xa4, 0x8b,
	0xaf, 0xd3, 0x14, 0x4b, 0x56, 0x78, 0x98, 0xb1,
	0x8c, 0xfd, 0x9f, 0x69, 0xdd, 0xcf, 0xbb, 0x63,
})

func TestHash(t *testing.T) {
	hashStr := mainNetGenesisHash.String()
	hash, err := NewHashFromStr(hashStr)
	if err != nil {
		t.Fatalf("NewHashFromStr: %v", err)
	}
	if !hash.IsEqual(&mainNetGenesisHash) {
		t.Errorf("NewHashFromStr round-trip mismatch: got %s, want %s", hash, mainNetGenesisHash.String())
	}
}

func TestHashSetBytes(t *testing.T) {
	var h Hash
	if err := h.SetBytes(mainNetGenesisHash[:]); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	if !bytes.Equal(h.CloneBytes(), mainNetGenesisHash[:]) {
		t.Error("SetBytes/CloneBytes round trip mismatch")
	}

	if err := h.SetBytes([]byte{0x01, 0x02}); err == nil {
		t.Error("SetBytes with bad length should have failed")
	}
}

func TestHashIsEqual(t *testing.T) {
	h1 := Hash{0x01}
	h2 := Hash{0x01}
	h3 := Hash{0x02}

	if !h1.IsEqual(&h2) {
		t.Error("expected equal hashes to compare equal")
	}
	if h1.IsEqual(&h3) {
		t.Error("expected different hashes to compare unequal")
	}
	if !(*Hash)(nil).IsEqual(nil) {
		t.Error("expected two nil hashes to compare equal")
	}
}

func TestHashString(t *testing.T) {
	h := Hash{0x01, 0x02}
	if len(h.String()) != HashSize*2 {
		t.Errorf("String length = %d, want %d", len(h.String()), HashSize*2)
	}
}
