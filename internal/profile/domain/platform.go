package domain

import (
	"net/url"
	"strings"
)

var platformHosts = map[string]string{
	"github.com":      "github",
	"gitlab.com":      "gitlab",
	"twitter.com":     "twitter",
	"x.com":           "twitter",
	"linkedin.com":    "linkedin",
	"instagram.com":   "instagram",
	"youtube.com":     "youtube",
	"youtu.be":        "youtube",
	"facebook.com":    "facebook",
	"medium.com":      "medium",
	"dev.to":          "devto",
	"dribbble.com":    "dribbble",
	"t.me":            "telegram",
	"discord.gg":      "discord",
	"stackoverflow.com": "stackoverflow",
}

// DerivePlatform pattern-matches a social link URL's host to a known
// platform name. Unknown or unparsable hosts fall back to "website".
func DerivePlatform(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "website"
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	if p, ok := platformHosts[host]; ok {
		return p
	}
	return "website"
}
