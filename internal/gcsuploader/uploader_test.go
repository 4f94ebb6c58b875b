package gcsuploader

import "testing"

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"data.js", "text/javascript; charset=utf-8"},
		{"js/data/data.mjs", "text/javascript; charset=utf-8"},
		{"neko_data.json", "application/json"},
		{"noext", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentTypeFor(tt.name); got != tt.want {
				t.Errorf("ContentTypeFor(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
