package keccak

import (
	"encoding/hex"
	"testing"
)

func TestKnownDigests(t *testing.T) {
	// keccak256("") — well-known constant, distinct from SHA3-256("")
	got := Sum256(nil)
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if hex.EncodeToString(got[:]) != want {
		t.Fatalf("keccak256(\"\") = %x", got)
	}
}

func TestSelectors(t *testing.T) {
	cases := map[string]string{
		"transfer(address,uint256)": "a9059cbb",
		"balanceOf(address)":        "70a08231",
		"totalSupply()":             "18160ddd",
	}
	for sig, want := range cases {
		sel := Selector(sig)
		if hex.EncodeToString(sel[:]) != want {
			t.Fatalf("selector(%q) = %x, want %s", sig, sel, want)
		}
	}
}
