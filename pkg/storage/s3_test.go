package storage

import (
	"strings"
	"testing"
)

func TestValidateBannerType(t *testing.T) {
	tests := []struct {
		contentType, filename string
		want                  bool
	}{
		{"image/png", "x.bin", true},
		{"", "banner.JPEG", true},
		{"application/pdf", "doc.pdf", false},
		{"video/mp4", "clip.mp4", false},
	}
	for _, tt := range tests {
		if got := ValidateBannerType(tt.contentType, tt.filename); got != tt.want {
			t.Errorf("ValidateBannerType(%q, %q) = %v", tt.contentType, tt.filename, got)
		}
	}
}

func TestBannerKey(t *testing.T) {
	a, b := BannerKey("foto.PNG"), BannerKey("foto.png")
	if a == b {
		t.Fatal("keys must be unique")
	}
	if !strings.HasPrefix(a, FolderBanners+"/") || !strings.HasSuffix(a, ".png") {
		t.Fatalf("key = %q", a)
	}
	if k := BannerKey("script.sh"); strings.HasSuffix(k, ".sh") {
		t.Fatalf("unexpected extension kept: %q", k)
	}
}

func TestBannerContentType(t *testing.T) {
	if ct := BannerContentType("", "a.webp"); ct != "image/webp" {
		t.Fatalf("got %q", ct)
	}
	if ct := BannerContentType("IMAGE/PNG", "a"); ct != "image/png" {
		t.Fatalf("got %q", ct)
	}
}
