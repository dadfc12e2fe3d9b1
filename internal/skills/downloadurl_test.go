package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDownload(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   Download
	}{
		{
			name:   "github repository",
			source: "https://github.com/anthropics/skills/tree/main/canvas-design",
			want: Download{
				DownloadURL: "https://downgit.github.io/#/home?url=https%3A%2F%2Fgithub.com%2Fanthropics%2Fskills%2Ftree%2Fmain%2Fcanvas-design",
				LicenseType: "github",
			},
		},
		{
			name:   "github subdomain",
			source: "https://gist.github.com/acme/123",
			want: Download{
				DownloadURL: "https://downgit.github.io/#/home?url=https%3A%2F%2Fgist.github.com%2Facme%2F123",
				LicenseType: "github",
			},
		},
		{
			name:   "missing scheme",
			source: "github.com/acme/tool",
			want: Download{
				DownloadURL: "https://downgit.github.io/#/home?url=github.com%2Facme%2Ftool",
				LicenseType: "github",
			},
		},
		{name: "other host", source: "https://gitlab.com/acme/tool", want: Download{}},
		{name: "lookalike host", source: "https://github.com.evil.io/acme", want: Download{}},
		{name: "github in path only", source: "https://example.com/github.com/acme", want: Download{}},
		{name: "empty", source: "", want: Download{}},
		{name: "blank", source: "   ", want: Download{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveDownload(tt.source))
		})
	}
}

func TestDeriveDownloadIsStable(t *testing.T) {
	for _, source := range []string{"https://github.com/a/b", "https://example.com", ""} {
		once := DeriveDownload(source)
		assert.Equal(t, once, DeriveDownload(source))
	}
}
