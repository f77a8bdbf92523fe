package utils

import (
	"errors"
	"testing"
)

func TestDecodeBase64Image(t *testing.T) {
	raw, ext, err := DecodeBase64Image("data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeBase64Image: %v", err)
	}
	if string(raw) != "hello" {
		t.Errorf("raw = %q, want %q", raw, "hello")
	}
	if ext != ".png" {
		t.Errorf("ext = %q, want .png", ext)
	}

	_, ext, err = DecodeBase64Image("data:image/JPEG;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeBase64Image uppercase ext: %v", err)
	}
	if ext != ".jpeg" {
		t.Errorf("ext = %q, want .jpeg", ext)
	}
}

func TestDecodeBase64ImageMalformed(t *testing.T) {
	cases := []string{
		"",
		"aGVsbG8=",
		"data:image/png,aGVsbG8=",
		"data:image/;base64,aGVsbG8=",
		"data:image/png;base64,",
		"data:image/png;base64,not base64!!",
		"data:text/plain;base64,aGVsbG8=",
	}
	for _, data := range cases {
		if _, _, err := DecodeBase64Image(data); !errors.Is(err, ErrMalformedImageData) {
			t.Errorf("data %q: err = %v, want %v", data, err, ErrMalformedImageData)
		}
	}
}
