package recipe

import (
	"encoding/base64"
	"strconv"

	"recipebook/domain"
)

// EncodeShortLinkToken turns a recipe id into the opaque token used in
// /s/<token> URLs: URL-safe base64 of the decimal id, without padding.
func EncodeShortLinkToken(recipeID uint) string {
	return base64.RawURLEncoding.EncodeToString(
		[]byte(strconv.FormatUint(uint64(recipeID), 10)),
	)
}

// DecodeShortLinkToken reverses EncodeShortLinkToken. Any malformed token
// maps to ErrRecipeNotFound so the caller can answer 404 uniformly.
func DecodeShortLinkToken(token string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, domain.ErrRecipeNotFound
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrRecipeNotFound
	}
	return uint(id), nil
}
