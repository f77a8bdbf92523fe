package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrMalformedImageData = errors.New("malformed base64 image data")

// DecodeBase64Image decodes an inline image payload of the form
// "data:image/<ext>;base64,<content>" into raw bytes and a file extension.
func DecodeBase64Image(data string) ([]byte, string, error) {
	if !strings.HasPrefix(data, "data:image/") {
		return nil, "", ErrMalformedImageData
	}

	header, encoded, found := strings.Cut(data, ";base64,")
	if !found || encoded == "" {
		return nil, "", ErrMalformedImageData
	}

	ext := strings.TrimPrefix(header, "data:image/")
	if ext == "" || strings.ContainsAny(ext, "/;,") {
		return nil, "", ErrMalformedImageData
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", ErrMalformedImageData
	}

	return raw, "." + strings.ToLower(ext), nil
}
