package config

// Hosting describes one target image-hosting service: where its pages
// live and what shape its URL tokens have.
//
// Hosting values are immutable. Runtime overrides go through
// WithTokenLength, which copies; nothing hands out a mutable shared
// registry.
type Hosting struct {
	// Name is the profile name used in CLI arguments and persisted
	// records (e.g. "imgbb").
	Name string `yaml:"name"`

	// Domain is the service's page host (e.g. "ibb.co").
	Domain string `yaml:"domain"`

	// BaseURL is the scheme+host prefix candidate URLs are built on.
	BaseURL string `yaml:"baseURL"`

	// TokenLength is the number of characters in a page token.
	TokenLength int `yaml:"tokenLength"`

	// TokenChars is the token alphabet.
	TokenChars string `yaml:"tokenChars"`

	// CheckPath is the path prefix between BaseURL and the token.
	CheckPath string `yaml:"checkPath"`

	// Referer is sent with download requests; some hostings refuse
	// direct image fetches without it.
	Referer string `yaml:"referer"`
}

// BuildURL returns the candidate URL for the given token.
func (h Hosting) BuildURL(token string) string {
	return h.BaseURL + h.CheckPath + token
}

// WithTokenLength returns a copy of the profile with the token length
// replaced. Non-positive lengths leave the profile unchanged.
func (h Hosting) WithTokenLength(n int) Hosting {
	if n > 0 {
		h.TokenLength = n
	}
	return h
}

const alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultHostings returns the built-in hosting profiles. A YAML profile
// file can add to or override these.
func DefaultHostings() map[string]Hosting {
	return map[string]Hosting{
		"imgbb": {
			Name:        "imgbb",
			Domain:      "ibb.co",
			BaseURL:     "https://ibb.co",
			TokenLength: 8,
			TokenChars:  alphanumeric,
			CheckPath:   "/",
			Referer:     "https://ru.imgbb.com/",
		},
		"postimages": {
			Name:        "postimages",
			Domain:      "postimg.cc",
			BaseURL:     "https://postimg.cc",
			TokenLength: 8,
			TokenChars:  alphanumeric,
			CheckPath:   "/",
			Referer:     "https://postimg.cc/",
		},
	}
}
