package recipe

import (
	"errors"
	"testing"

	"recipebook/domain"
)

func TestShortLinkToken(t *testing.T) {
	for _, id := range []uint{1, 42, 100500} {
		token := EncodeShortLinkToken(id)
		got, err := DecodeShortLinkToken(token)
		if err != nil {
			t.Fatalf("decode %q: %v", token, err)
		}
		if got != id {
			t.Errorf("roundtrip %d -> %q -> %d", id, token, got)
		}
	}
}

func TestDecodeShortLinkTokenInvalid(t *testing.T) {
	for _, token := range []string{"", "???", "aGVsbG8", EncodeShortLinkToken(0)} {
		if _, err := DecodeShortLinkToken(token); !errors.Is(err, domain.ErrRecipeNotFound) {
			t.Errorf("token %q: err = %v, want %v", token, err, domain.ErrRecipeNotFound)
		}
	}
}
