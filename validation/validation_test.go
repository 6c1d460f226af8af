package validation

import "testing"

func TestNormalizeURL(t *testing.T) {
	const canonical = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{
			name:   "Short form",
			url:    "https://youtu.be/dQw4w9WgXcQ",
			want:   canonical,
			wantOK: true,
		},
		{
			name:   "Watch form with extra parameters",
			url:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=5s",
			want:   canonical,
			wantOK: true,
		},
		{
			name:   "Embed form",
			url:    "https://www.youtube.com/embed/dQw4w9WgXcQ",
			want:   canonical,
			wantOK: true,
		},
		{
			name:   "Watch form with leading parameters",
			url:    "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ",
			want:   canonical,
			wantOK: true,
		},
		{
			name:   "No scheme",
			url:    "youtube.com/watch?v=dQw4w9WgXcQ",
			want:   canonical,
			wantOK: true,
		},
		{
			name:   "Non-YouTube URL",
			url:    "https://example.com/video",
			wantOK: false,
		},
		{
			name:   "Short id",
			url:    "https://youtu.be/abc",
			wantOK: false,
		},
		{
			name:   "Empty",
			url:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeURL(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeURL(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	first, ok := NormalizeURL("https://youtu.be/dQw4w9WgXcQ")
	if !ok {
		t.Fatal("expected valid URL")
	}
	second, ok := NormalizeURL(first)
	if !ok {
		t.Fatal("normalized URL should itself be valid")
	}
	if first != second {
		t.Errorf("re-normalizing changed the URL: %q -> %q", first, second)
	}
}

func TestCanonicalURL(t *testing.T) {
	v := NewValidator()

	if _, err := v.CanonicalURL(""); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := v.CanonicalURL("https://example.com/video"); err == nil {
		t.Error("expected error for non-YouTube URL")
	}

	got, err := v.CanonicalURL("https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("CanonicalURL() error = %v", err)
	}
	if got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("CanonicalURL() = %q", got)
	}
}
