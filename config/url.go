package config

import (
	"errors"
	"strings"

	format "github.com/coreforge/gitcore/plumbing/format/config"
)

var errURLEmptyInsteadOf = errors.New("url config: empty insteadOf")

// Url defines Url rewrite rules
type URL struct {
	// Name new base url
	Name string
	// Any URL that starts with this value will be rewritten to start, instead, with <base>.
	// When more than one insteadOf strings match a given URL, the longest match is used.
	InsteadOfs []string
	// Any URL that starts with this value will be rewritten to start, instead,
	// with <base>, but only for push. When no pushInsteadOf rule matches, the
	// insteadOf rules above are consulted for push too.
	PushInsteadOfs []string

	// raw representation of the subsection, filled by marshal or unmarshal are
	// called.
	raw *format.Subsection
}

// Validate validates fields of branch
func (b *URL) Validate() error {
	if len(b.InsteadOfs) == 0 && len(b.PushInsteadOfs) == 0 {
		return errURLEmptyInsteadOf
	}

	return nil
}

const (
	insteadOfKey     = "insteadOf"
	pushInsteadOfKey = "pushInsteadOf"
)

func (u *URL) unmarshal(s *format.Subsection) error {
	u.raw = s

	u.Name = s.Name
	u.InsteadOfs = u.raw.OptionAll(insteadOfKey)
	u.PushInsteadOfs = u.raw.OptionAll(pushInsteadOfKey)
	return nil
}

func (u *URL) marshal() *format.Subsection {
	if u.raw == nil {
		u.raw = &format.Subsection{}
	}

	u.raw.Name = u.Name
	u.raw.SetOption(insteadOfKey, u.InsteadOfs...)
	u.raw.SetOption(pushInsteadOfKey, u.PushInsteadOfs...)

	return u.raw
}

func findLongestMatch(remoteURL string, urls map[string]*URL, pick func(*URL) []string) *URL {
	var longestMatch *URL
	var longestMatchLength int

	for _, u := range urls {
		for _, currentInsteadOf := range pick(u) {
			if !strings.HasPrefix(remoteURL, currentInsteadOf) {
				continue
			}

			lengthCurrentInsteadOf := len(currentInsteadOf)

			// according to spec if there is more than one match, take the longest
			if longestMatch == nil || longestMatchLength < lengthCurrentInsteadOf {
				longestMatch = u
				longestMatchLength = lengthCurrentInsteadOf
			}
		}
	}

	return longestMatch
}

func findLongestInsteadOfMatch(remoteURL string, urls map[string]*URL) *URL {
	return findLongestMatch(remoteURL, urls, func(u *URL) []string { return u.InsteadOfs })
}

func findLongestPushInsteadOfMatch(remoteURL string, urls map[string]*URL) *URL {
	return findLongestMatch(remoteURL, urls, func(u *URL) []string { return u.PushInsteadOfs })
}

// ApplyInsteadOf rewrites url using this rule's insteadOf prefix, leaving it
// unchanged if none of InsteadOfs is a prefix of url.
func (u *URL) ApplyInsteadOf(url string) string {
	return applyPrefixRewrite(url, u.Name, u.InsteadOfs)
}

// ApplyPushInsteadOf rewrites url using this rule's pushInsteadOf prefix,
// leaving it unchanged if none of PushInsteadOfs is a prefix of url.
func (u *URL) ApplyPushInsteadOf(url string) string {
	return applyPrefixRewrite(url, u.Name, u.PushInsteadOfs)
}

func applyPrefixRewrite(url, name string, prefixes []string) string {
	for _, j := range prefixes {
		if strings.HasPrefix(url, j) {
			return name + url[len(j):]
		}
	}

	return url
}
