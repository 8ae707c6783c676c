package token

import (
	"testing"
)

func TestLookupKeyword_Positive(t *testing.T) {
	cases := map[string]Kind{
		"contract": KwContract,
		"function": KwFunction,
		"modifier": KwModifier,
		"override": KwOverride,
		"virtual":  KwVirtual,
		"payable":  KwPayable,
		"mapping":  KwMapping,
		"memory":   KwMemory,
		"calldata": KwCalldata,
		"emit":     KwEmit,
		"is":       KwIs,
		"true":     KwTrue,
	}

	for lexeme, want := range cases {
		got, ok := LookupKeyword(lexeme)
		if !ok {
			t.Fatalf("LookupKeyword(%q) = !ok, want %v", lexeme, want)
		}
		if got != want {
			t.Fatalf("LookupKeyword(%q) = %v, want %v", lexeme, got, want)
		}
	}
}

func TestLookupKeyword_Negative(t *testing.T) {
	// sized type names and casing variants stay Ident
	notKw := []string{
		"Contract", "FUNCTION",
		"uint", "int", "uint256", "uint8", "bytes32", "bytes1",
		"selector", "wei", "ether",
	}
	for _, s := range notKw {
		if _, ok := LookupKeyword(s); ok {
			t.Fatalf("LookupKeyword(%q) returned ok=true, want false", s)
		}
	}
}
