package rlp

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"
)

func TestEncodeStrings(t *testing.T) {
	cases := []struct {
		name  string
		input Bytes
		want  string
	}{
		{name: "empty", input: Bytes{}, want: "80"},
		{name: "single low byte", input: Bytes{0x7f}, want: "7f"},
		{name: "single high byte", input: Bytes{0x80}, want: "8180"},
		{name: "dog", input: Bytes("dog"), want: "83646f67"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := hex.EncodeToString(Encode(tc.input))
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestEncodeLongString(t *testing.T) {
	payload := Bytes(strings.Repeat("a", 56))
	encoded := Encode(payload)
	if encoded[0] != 0xb8 || encoded[1] != 56 {
		t.Fatalf("unexpected long string prefix: %x", encoded[:2])
	}
	if !bytes.Equal(encoded[2:], payload) {
		t.Fatalf("unexpected payload")
	}
}

func TestEncodeLists(t *testing.T) {
	if got := hex.EncodeToString(Encode(List{})); got != "c0" {
		t.Fatalf("expected c0, got %s", got)
	}
	got := hex.EncodeToString(Encode(List{Bytes("cat"), Bytes("dog")}))
	if got != "c88363617483646f67" {
		t.Fatalf("unexpected list encoding: %s", got)
	}
	nested := hex.EncodeToString(Encode(List{List{}, List{List{}}, List{List{}, List{List{}}}}))
	if nested != "c7c0c1c0c3c0c1c0" {
		t.Fatalf("unexpected nested encoding: %s", nested)
	}
}

func TestEncodeLongList(t *testing.T) {
	items := make(List, 0, 20)
	for i := 0; i < 20; i++ {
		items = append(items, Bytes("abc"))
	}
	encoded := Encode(items)
	if encoded[0] != 0xf8 || encoded[1] != 80 {
		t.Fatalf("unexpected long list prefix: %x", encoded[:2])
	}
}

func TestUintMinimalEncoding(t *testing.T) {
	if len(Uint(big.NewInt(0))) != 0 {
		t.Fatalf("zero should encode to an empty string")
	}
	if got := hex.EncodeToString(Encode(Uint64(1024))); got != "820400" {
		t.Fatalf("expected 820400, got %s", got)
	}
	if got := hex.EncodeToString(Encode(Uint64(15))); got != "0f" {
		t.Fatalf("expected 0f, got %s", got)
	}
	if got := hex.EncodeToString(Encode(Uint(nil))); got != "80" {
		t.Fatalf("expected 80 for nil, got %s", got)
	}
}
