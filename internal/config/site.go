package config

import (
	"maps"
	"strings"
)

// SiteConfig holds site-specific crawl settings for one documentation host.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Depth overrides the global maximum depth for this site.
	// If zero, the global MaxDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// MaxPages overrides the global page limit for this site.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// MainContent overrides the global main content mode for this site.
	// nil leaves the global setting in place.
	MainContent *bool `yaml:"mainContent,omitempty"`

	// IgnorePatterns are URL path patterns never followed.
	// Patterns use glob syntax, e.g. "/blog/*" or "*.pdf".
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns, when set, are the only URL path patterns followed.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .docmirror configuration file.
type File struct {
	// Sites maps hosts to their site-specific configurations.
	// Keys are host names with an optional port, e.g. "docs.example.com".
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every site unless the site overrides it.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host, merging its
// site-specific entry over the defaults. Host matching ignores case.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if siteConfig.MainContent != nil {
		result.MainContent = siteConfig.MainContent
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	if siteConfig, ok := cf.Sites[host]; ok {
		return siteConfig, true
	}
	for key, siteConfig := range cf.Sites {
		if strings.EqualFold(key, host) {
			return siteConfig, true
		}
	}
	return SiteConfig{}, false
}
