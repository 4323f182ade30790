package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreforge/gitcore/plumbing"
)

const (
	refSpecWildcard  = "*"
	refSpecForce     = '+'
	refSpecSeparator = ":"
)

var (
	ErrRefSpecMalformedSeparator = errors.New("malformed refspec, separators are wrong")
	ErrRefSpecMalformedWildcard  = errors.New("malformed refspec, mismatched number of wildcards")
)

// RefSpec is a mapping from local branches to remote references. A refspec
// has the following format "[+]<src>:<dst>", where "<src>" is the pattern
// for references on the remote side, "<dst>" is the reference on the local
// side and the optional "+" means that the reference should be updated even
// if it isn't a fast-forward. A refspec that only specifies "<src>" (no
// separator) describes a source that should be fetched without being
// stored locally.
//
// Examples:
//   - "+refs/heads/*:refs/remotes/origin/*" - fetch all branches
//   - "refs/heads/master:refs/heads/master" - fetch only master
//   - ":refs/heads/master" - push to remote's master without a local source
type RefSpec string

// Validate validates the RefSpec.
func (s RefSpec) Validate() error {
	spec := string(s)
	if strings.Count(spec, ":") > 1 {
		return ErrRefSpecMalformedSeparator
	}

	wildcard := strings.Count(spec, "*")
	if wildcard > 2 {
		return ErrRefSpecMalformedWildcard
	}

	if strings.HasPrefix(spec, string(refSpecForce)) {
		spec = spec[1:]
	}

	src, dst, hasDst := strings.Cut(spec, refSpecSeparator)
	if hasDst {
		if dst == "" {
			return ErrRefSpecMalformedSeparator
		}

		dstWildcard := strings.Count(dst, refSpecWildcard)
		srcWildcard := strings.Count(src, refSpecWildcard)
		if dstWildcard != srcWildcard {
			return ErrRefSpecMalformedWildcard
		}
	}

	return nil
}

// IsForceUpdate returns if update is allowed even when the operation is not
// a fast-forward.
func (s RefSpec) IsForceUpdate() bool {
	return s[0] == refSpecForce
}

// IsDelete returns true if the RefSpec has an empty src, meaning that the
// destination reference should be deleted.
func (s RefSpec) IsDelete() bool {
	return s.Src() == ""
}

// IsWildcard returns if the RefSpec contains a wildcard.
func (s RefSpec) IsWildcard() bool {
	return strings.Contains(string(s), refSpecWildcard)
}

// IsExactSHA1 returns true if the src element of the RefSpec is a SHA1 hash.
func (s RefSpec) IsExactSHA1() bool {
	return plumbing.IsHash(s.Src())
}

// Src returns the src side of the RefSpec.
func (s RefSpec) Src() string {
	spec := string(s)
	if spec[0] == refSpecForce {
		spec = spec[1:]
	}

	i := strings.Index(spec, refSpecSeparator)
	if i == -1 {
		return spec
	}

	return spec[:i]
}

// Match returns true if the given ReferenceName matches this RefSpec's src
// side.
func (s RefSpec) Match(n plumbing.ReferenceName) bool {
	if !s.IsWildcard() {
		return s.Src() == n.String()
	}

	return s.matchGlob(n)
}

func (s RefSpec) matchGlob(n plumbing.ReferenceName) bool {
	src := s.Src()
	name := n.String()
	wildcard := strings.Index(src, refSpecWildcard)

	var prefix, suffix string
	prefix = src[0:wildcard]
	if len(src) > wildcard+1 {
		suffix = src[wildcard+1:]
	}

	if len(name) < len(prefix)+len(suffix) {
		return false
	}

	return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix)
}

// Dst returns the destination for the given remote reference, expanding any
// wildcard using the value matched by Src.
func (s RefSpec) Dst(n plumbing.ReferenceName) plumbing.ReferenceName {
	spec := string(s)
	if spec[0] == refSpecForce {
		spec = spec[1:]
	}

	_, dst, hasDst := strings.Cut(spec, refSpecSeparator)
	if !hasDst {
		return n
	}

	if !s.IsWildcard() {
		return plumbing.ReferenceName(dst)
	}

	src := s.Src()
	wildcard := strings.Index(src, refSpecWildcard)
	name := n.String()

	var match string
	prefix, suffix := src[0:wildcard], src[wildcard+1:]
	if len(name) >= len(prefix)+len(suffix) {
		match = name[len(prefix) : len(name)-len(suffix)]
	}

	return plumbing.ReferenceName(strings.Replace(dst, refSpecWildcard, match, 1))
}

// Reverse returns a new RefSpec with the src and dst fields reversed,
// preserving the force flag. This is used to build a refspec that maps
// remote-tracking references back onto the peer's reference namespace.
func (s RefSpec) Reverse() RefSpec {
	spec := string(s)
	force := spec[0] == refSpecForce
	if force {
		spec = spec[1:]
	}

	src, dst, hasDst := strings.Cut(spec, refSpecSeparator)
	if !hasDst {
		dst = ""
	}

	return newRefSpec(force, dst, src)
}

// String returns the string representation of the RefSpec.
func (s RefSpec) String() string {
	return string(s)
}

func newRefSpec(force bool, src, dst string) RefSpec {
	spec := fmt.Sprintf("%s:%s", src, dst)
	if force {
		spec = string(refSpecForce) + spec
	}

	return RefSpec(spec)
}

// MatchAny returns true if any of the given RefSpecs matches the reference
// name n.
func MatchAny(l []RefSpec, n plumbing.ReferenceName) bool {
	for _, rs := range l {
		if rs.Match(n) {
			return true
		}
	}

	return false
}
