package skills

import (
	"net/url"
	"strings"
)

const (
	downloadBaseURL   = "https://downgit.github.io/#/home?url="
	LicenseTypeGitHub = "github"
	githubHost        = "github.com"
)

// Download is the pair derived from a skill's source URL
type Download struct {
	DownloadURL string
	LicenseType string
}

// DeriveDownload maps a source URL hosted on github.com (or a subdomain of it) to an
// archive download link. Any other URL, or one that does not parse, derives nothing.
func DeriveDownload(source string) Download {
	source = strings.TrimSpace(source)
	if source == "" {
		return Download{}
	}

	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		// "github.com/owner/repo" without a scheme
		u, err = url.Parse("https://" + source)
		if err != nil {
			return Download{}
		}
	}

	host := strings.ToLower(u.Hostname())
	if host != githubHost && !strings.HasSuffix(host, "."+githubHost) {
		return Download{}
	}

	return Download{
		DownloadURL: downloadBaseURL + escapeComponent(source),
		LicenseType: LicenseTypeGitHub,
	}
}

// escapeComponent percent-encodes like a URI component, spaces as %20
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
