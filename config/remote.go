package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/coreforge/gitcore/internal/url"
	"github.com/coreforge/gitcore/plumbing"
	format "github.com/coreforge/gitcore/plumbing/format/config"
)

// TagOpt describes the tag auto-follow policy applied while reconciling a
// peer's advertised refs/tags/* into the local repository.
type TagOpt int

const (
	// TagOptUnspecified defers to TagOptAuto; kept distinct from TagOptAuto
	// so a remote's own configuration never masks a caller-supplied policy.
	TagOptUnspecified TagOpt = iota
	// TagOptAuto follows a tag only when the object it points at is already
	// present in the local object database.
	TagOptAuto
	// TagOptNone ignores every peer tag.
	TagOptNone
	// TagOptAll follows every peer tag unconditionally.
	TagOptAll
)

func (t TagOpt) String() string {
	switch t {
	case TagOptNone:
		return "--no-tags"
	case TagOptAll:
		return "--tags"
	default:
		return ""
	}
}

func parseTagOpt(raw string) TagOpt {
	switch raw {
	case "--tags":
		return TagOptAll
	case "--no-tags":
		return TagOptNone
	default:
		return TagOptUnspecified
	}
}

// RemoteConfig contains the configuration for a given remote repository.
//
// It mirrors a "[remote \"name\"]" config section: a fetch URL, an optional
// push URL (falling back to the fetch URL when absent), the refspecs used
// for each direction, and the small set of per-remote policy knobs (prune,
// tag auto-follow, proxy) that git exposes as remote.<name>.* keys.
type RemoteConfig struct {
	// Name of the remote. Empty for anonymous/detached remotes.
	Name string
	// URL is the fetch URL. Must be non-empty for a usable remote.
	URL string
	// PushURL is used for push if set, otherwise URL is used for both
	// directions.
	PushURL string
	// Mirror indicates that the repository is a mirror of remote.
	Mirror bool
	// Prune is the remote's own prune policy (remote.<name>.prune); nil
	// means unspecified and the caller falls back to fetch.prune.
	Prune *bool
	// TagOpt is the tag auto-follow policy (remote.<name>.tagopt).
	TagOpt TagOpt
	// Proxy is the remote's own proxy URL (remote.<name>.proxy); empty
	// means unspecified and the caller falls back to http.proxy and then
	// the https_proxy/http_proxy environment variables.
	Proxy string

	// Fetch is the set of refspecs used for fetch operations.
	Fetch []RefSpec
	// Push is the set of refspecs used for push operations.
	Push []RefSpec

	// insteadOfRulesApplied records whether url/pushurl were rewritten so
	// marshal can persist the pre-rewrite values.
	insteadOfRulesApplied bool
	originalURL           string
	originalPushURL       string

	// raw representation of the subsection, filled by marshal or unmarshal are
	// called
	raw *format.Subsection
}

// CreateFlag is a bitmask of the optional creation-time behaviors spec
// §6's create_with_opts recognizes.
type CreateFlag uint8

const (
	// SkipInsteadOf skips rewriting the new remote's URL/PushURL against
	// the repository's url.<n>.insteadof/pushinsteadof tables at
	// creation time.
	SkipInsteadOf CreateFlag = 1 << iota
	// SkipDefaultFetchSpec skips installing the default
	// "+refs/heads/*:refs/remotes/<name>/*" fetch refspec when the
	// caller didn't supply one.
	SkipDefaultFetchSpec
)

// CreateOptions mirrors spec §6's create_options: { repository?, name?,
// fetchspec?, flags }. The repository is implicit, supplied by the
// Repository method the caller invokes.
type CreateOptions struct {
	// Name of the new remote.
	Name string
	// FetchSpec optionally overrides the single default fetch refspec
	// installed for the new remote.
	FetchSpec *RefSpec
	// Flags is a bitmask of CreateFlag values.
	Flags CreateFlag
}

// Validate validates the fields and sets the default values.
func (c *RemoteConfig) Validate() error {
	return c.validate(0)
}

// ValidateWithFlags is Validate with spec §6's create_with_opts flags
// applied; SkipDefaultFetchSpec suppresses the default-fetchspec step.
func (c *RemoteConfig) ValidateWithFlags(flags CreateFlag) error {
	return c.validate(flags)
}

func (c *RemoteConfig) validate(flags CreateFlag) error {
	if c.Name == "" {
		return ErrRemoteConfigEmptyName
	}

	if c.URL == "" {
		return ErrRemoteConfigEmptyURL
	}

	for _, r := range c.Fetch {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	for _, r := range c.Push {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	if len(c.Fetch) == 0 && flags&SkipDefaultFetchSpec == 0 {
		c.Fetch = []RefSpec{RefSpec(fmt.Sprintf(DefaultFetchRefSpec, c.Name))}
	}

	return plumbing.NewRemoteHEADReferenceName(c.Name).Validate()
}

// PushURLOrFetchURL returns PushURL, falling back to URL when PushURL is
// unset (spec invariant: push uses push_url if present, else url).
func (c *RemoteConfig) PushURLOrFetchURL() string {
	if c.PushURL != "" {
		return c.PushURL
	}

	return c.URL
}

// IsFirstURLLocal returns true if the fetch URL is a local path.
func (c *RemoteConfig) IsFirstURLLocal() bool {
	return url.IsLocalEndpoint(c.URL)
}

// EffectivePrune resolves this remote's prune policy against the
// repository-wide fetch.prune fallback.
func (c *RemoteConfig) EffectivePrune(fetchPruneFallback bool) bool {
	if c.Prune != nil {
		return *c.Prune
	}

	return fetchPruneFallback
}

// EffectiveProxy resolves this remote's proxy setting against the
// repository-wide http.proxy fallback and, failing that, the
// https_proxy/http_proxy environment variables (lowercase checked before
// uppercase, matching the order curl and git itself use).
func (c *RemoteConfig) EffectiveProxy(httpProxyFallback string) string {
	if c.Proxy != "" {
		return c.Proxy
	}

	if httpProxyFallback != "" {
		return httpProxyFallback
	}

	for _, name := range []string{"https_proxy", "http_proxy", "HTTPS_PROXY", "HTTP_PROXY"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}

	return ""
}

func (c *RemoteConfig) unmarshal(s *format.Subsection) error {
	c.raw = s

	fetch := []RefSpec{}
	for _, f := range c.raw.Options.GetAll(fetchKey) {
		rs := RefSpec(f)
		if err := rs.Validate(); err != nil {
			return err
		}

		fetch = append(fetch, rs)
	}

	push := []RefSpec{}
	for _, f := range c.raw.Options.GetAll(pushKey) {
		rs := RefSpec(f)
		if err := rs.Validate(); err != nil {
			return err
		}

		push = append(push, rs)
	}

	c.Name = c.raw.Name
	c.URL = c.raw.Options.Get(urlKey)
	c.PushURL = c.raw.Options.Get(pushurlKey)
	c.Fetch = fetch
	c.Push = push
	c.Mirror = c.raw.Options.Get(mirrorKey) == "true"
	c.Proxy = c.raw.Options.Get(proxyKey)
	c.TagOpt = parseTagOpt(c.raw.Options.Get(tagOptKey))

	if c.raw.Options.Has(pruneKey) {
		b := c.raw.Options.Get(pruneKey) == "true"
		c.Prune = &b
	}

	return nil
}

func (c *RemoteConfig) marshal() *format.Subsection {
	if c.raw == nil {
		c.raw = &format.Subsection{}
	}

	c.raw.Name = c.Name

	url, pushURL := c.URL, c.PushURL
	if c.insteadOfRulesApplied {
		url, pushURL = c.originalURL, c.originalPushURL
	}

	if url == "" {
		c.raw.RemoveOption(urlKey)
	} else {
		c.raw.SetOption(urlKey, url)
	}

	if pushURL == "" {
		c.raw.RemoveOption(pushurlKey)
	} else {
		c.raw.SetOption(pushurlKey, pushURL)
	}

	if len(c.Fetch) == 0 {
		c.raw.RemoveOption(fetchKey)
	} else {
		c.raw.SetOption(fetchKey, refSpecStrings(c.Fetch)...)
	}

	if len(c.Push) == 0 {
		c.raw.RemoveOption(pushKey)
	} else {
		c.raw.SetOption(pushKey, refSpecStrings(c.Push)...)
	}

	if c.Mirror {
		c.raw.SetOption(mirrorKey, strconv.FormatBool(c.Mirror))
	}

	if c.Prune != nil {
		c.raw.SetOption(pruneKey, strconv.FormatBool(*c.Prune))
	}

	if tagOpt := c.TagOpt.String(); tagOpt != "" {
		c.raw.SetOption(tagOptKey, tagOpt)
	}

	if c.Proxy != "" {
		c.raw.SetOption(proxyKey, c.Proxy)
	}

	return c.raw
}

func refSpecStrings(specs []RefSpec) []string {
	values := make([]string, len(specs))
	for i, rs := range specs {
		values[i] = rs.String()
	}

	return values
}

// ApplyURLRules rewrites URL and PushURL against the repository-wide
// url.<prefix>.insteadof / url.<prefix>.pushinsteadof tables, recording the
// pre-rewrite values so marshal can persist the un-rewritten configuration
// (insteadof is a read-time rewrite, never a write-time one). Config
// loading applies this to every stored remote; Repository.CreateRemoteWithOptions
// applies it once at creation time unless the caller passed SkipInsteadOf.
func (c *RemoteConfig) ApplyURLRules(urlRules map[string]*URL) {
	originalURL, originalPushURL := c.URL, c.PushURL

	if match := findLongestInsteadOfMatch(c.URL, urlRules); match != nil {
		c.URL = match.ApplyInsteadOf(c.URL)
		c.insteadOfRulesApplied = true
	}

	pushURL := c.PushURLOrFetchURL()
	if match := findLongestPushInsteadOfMatch(pushURL, urlRules); match != nil {
		c.PushURL = match.ApplyPushInsteadOf(pushURL)
		c.insteadOfRulesApplied = true
	} else if match := findLongestInsteadOfMatch(pushURL, urlRules); match != nil && c.PushURL != "" {
		c.PushURL = match.ApplyInsteadOf(pushURL)
		c.insteadOfRulesApplied = true
	}

	if c.insteadOfRulesApplied {
		c.originalURL, c.originalPushURL = originalURL, originalPushURL
	}
}

// CanonicalizeURL applies the spec's URL canonicalization pipeline (reject
// empty, UNC-path rewrite; insteadof is applied separately by the config
// layer before the remote ever sees the URL).
func CanonicalizeURL(raw string) (string, error) {
	if raw == "" {
		return "", ErrRemoteConfigEmptyURL
	}

	if strings.HasPrefix(raw, `\\`) {
		rest := strings.TrimPrefix(raw, `\\`)
		return "//" + strings.ReplaceAll(rest, `\`, "/"), nil
	}

	return raw, nil
}
