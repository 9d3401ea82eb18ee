package config

import "strings"

// SiteConfig holds the path conventions and depth overrides of one wiki.
// Zero values mean "inherit".
type SiteConfig struct {
	// Origin is the scheme and host article names are resolved against
	// ("https://en.wikipedia.org"). Only read from the defaults.
	Origin string `yaml:"origin,omitempty"`

	// ArticlePrefix is the path every article link starts with ("/wiki/").
	ArticlePrefix string `yaml:"articlePrefix,omitempty"`

	// RootPath is the landing page, never followed ("/wiki/Main_Page").
	RootPath string `yaml:"rootPath,omitempty"`

	// APIPath is the MediaWiki API endpoint used by --search ("/w/api.php").
	APIPath string `yaml:"apiPath,omitempty"`

	// Denylist holds path fragments that disqualify a link, matched
	// case-insensitively.
	Denylist []string `yaml:"denylist,omitempty"`

	// MinAnchorText is the minimum visible anchor text length.
	MinAnchorText int `yaml:"minAnchorText,omitempty"`

	// MaxDepth is the max depth. In defaults it replaces the built-in
	// default and loses to --max-depth; in a site entry it applies to that
	// host only. A pointer so that 0 can be set.
	MaxDepth *int `yaml:"maxDepth,omitempty"`

	// TolerantDepth follows the same rules as MaxDepth.
	TolerantDepth *int `yaml:"tolerantDepth,omitempty"`
}

// File represents the structure of the .wikicrawl configuration file.
type File struct {
	// Sites maps hosts (e.g. "en.wikipedia.org") to their configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// Site returns the entry configured for host alone, without defaults.
// Host matching ignores case.
func (cf *File) Site(host string) (SiteConfig, bool) {
	if cf == nil {
		return SiteConfig{}, false
	}
	if site, ok := cf.Sites[host]; ok {
		return site, true
	}
	for name, sc := range cf.Sites {
		if strings.EqualFold(name, host) {
			return sc, true
		}
	}
	return SiteConfig{}, false
}

// SiteFor returns the configuration for host, merged over the defaults.
// Depths come from the host entry only: default depths are global
// budgets and are resolved against the command-line flags by the caller.
func (cf *File) SiteFor(host string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}

	result := cf.Defaults
	result.MaxDepth = nil
	result.TolerantDepth = nil

	site, ok := cf.Site(host)
	if !ok {
		return result
	}

	if site.ArticlePrefix != "" {
		result.ArticlePrefix = site.ArticlePrefix
	}
	if site.RootPath != "" {
		result.RootPath = site.RootPath
	}
	if site.APIPath != "" {
		result.APIPath = site.APIPath
	}
	if len(site.Denylist) > 0 {
		result.Denylist = site.Denylist
	}
	if site.MinAnchorText != 0 {
		result.MinAnchorText = site.MinAnchorText
	}
	result.MaxDepth = site.MaxDepth
	result.TolerantDepth = site.TolerantDepth

	return result
}
