package plumbing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrReferenceNotFound    = errors.New("reference not found")
	ErrInvalidReferenceName = errors.New("invalid reference name")
)

// RefRevParseRules are a set of rules to parse references into short names.
// These are the same rules as used by git in shortening a reference name.
var RefRevParseRules = []string{
	"%s",
	"refs/%s",
	"refs/tags/%s",
	"refs/heads/%s",
	"refs/remotes/%s",
	"refs/remotes/%s/HEAD",
}

const (
	HEAD    ReferenceName = "HEAD"
	Master  ReferenceName = "refs/heads/master"
	Main    ReferenceName = "refs/heads/main"

	refHeadPrefix   = "refs/heads/"
	refTagPrefix    = "refs/tags/"
	refRemotePrefix = "refs/remotes/"
	refNotePrefix   = "refs/notes/"
	symrefPrefix    = "ref: "
)

// ReferenceType internal type of a Reference.
type ReferenceType int8

const (
	InvalidReference  ReferenceType = 0
	HashReference     ReferenceType = 1
	SymbolicReference ReferenceType = 2
)

func (r ReferenceType) String() string {
	switch r {
	case HashReference:
		return "hash-reference"
	case SymbolicReference:
		return "symbolic-reference"
	default:
		return "invalid-reference"
	}
}

// ReferenceName is a reference name identifying a Reference, such as
// "refs/heads/master".
type ReferenceName string

// Short returns the short name of a ReferenceName, this is a relative path
// removing the prefix determined by the reference kind: "refs/heads/",
// "refs/remotes/", "refs/tags/" or "refs/notes/".
func (r ReferenceName) Short() string {
	s := string(r)
	for _, prefix := range []string{refHeadPrefix, refTagPrefix, refRemotePrefix} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimPrefix(s, prefix)
		}
	}

	if strings.HasPrefix(s, "refs/") {
		return strings.TrimPrefix(s, "refs/")
	}

	return s
}

// String returns the string representation of the ReferenceName.
func (r ReferenceName) String() string {
	return string(r)
}

// IsBranch returns true if the reference name is a branch reference.
func (r ReferenceName) IsBranch() bool {
	return strings.HasPrefix(string(r), refHeadPrefix)
}

// IsNote returns true if the reference name is a note reference.
func (r ReferenceName) IsNote() bool {
	return strings.HasPrefix(string(r), refNotePrefix)
}

// IsRemote returns true if the reference name is a remote reference.
func (r ReferenceName) IsRemote() bool {
	return strings.HasPrefix(string(r), refRemotePrefix)
}

// IsTag returns true if the reference name is a tag reference.
func (r ReferenceName) IsTag() bool {
	return strings.HasPrefix(string(r), refTagPrefix)
}

// Validate validates a reference name, following the constraints imposed by
// git-check-ref-format(1).
func (r ReferenceName) Validate() error {
	s := string(r)

	if s == "HEAD" {
		return nil
	}

	if !strings.HasPrefix(s, "refs/") {
		return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
	}

	rest := strings.TrimPrefix(s, "refs/")
	if rest == "" {
		return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
	}

	components := strings.Split(rest, "/")
	for i, c := range components {
		last := i == len(components)-1
		noDash := last && (strings.HasPrefix(s, refHeadPrefix) || strings.HasPrefix(s, refTagPrefix))
		if err := validateRefComponent(c, last, noDash); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
		}
	}

	return nil
}

func validateRefComponent(c string, isLast, forbidDashPrefix bool) error {
	if c == "" {
		return errors.New("empty component")
	}
	if c == "." || c == ".." {
		return errors.New("dot component")
	}
	if forbidDashPrefix && strings.HasPrefix(c, "-") {
		return errors.New("component starts with dash")
	}
	if strings.HasPrefix(c, ".") {
		return errors.New("component starts with dot")
	}
	if strings.HasSuffix(c, ".lock") {
		return errors.New("component ends with .lock")
	}
	if strings.HasSuffix(c, ".") {
		return errors.New("component ends with dot")
	}
	if strings.Contains(c, "..") {
		return errors.New("component contains consecutive dots")
	}
	if strings.Contains(c, "@{") {
		return errors.New("component contains @{")
	}
	if isLast && c == "@" {
		return errors.New("single @ component")
	}

	for _, r := range c {
		switch {
		case r < 0x20 || r == 0x7f:
			return errors.New("control character in component")
		case strings.ContainsRune(" ~^:?*[\\", r):
			return errors.New("illegal character in component")
		}
	}

	return nil
}

// NewBranchReferenceName returns a reference name for a local branch.
func NewBranchReferenceName(n string) ReferenceName {
	return ReferenceName(refHeadPrefix + n)
}

// NewNoteReferenceName returns a reference name for a note.
func NewNoteReferenceName(n string) ReferenceName {
	return ReferenceName(refNotePrefix + n)
}

// NewRemoteReferenceName returns a reference name for a branch tracked from
// the given remote.
func NewRemoteReferenceName(remote, n string) ReferenceName {
	return ReferenceName(refRemotePrefix + remote + "/" + n)
}

// NewRemoteHEADReferenceName returns a reference name for the HEAD of the
// given remote.
func NewRemoteHEADReferenceName(remote string) ReferenceName {
	return ReferenceName(refRemotePrefix + remote + "/HEAD")
}

// NewTagReferenceName returns a reference name for a tag.
func NewTagReferenceName(n string) ReferenceName {
	return ReferenceName(refTagPrefix + n)
}

// Reference is a Git reference, pointing either to a commit hash (or any
// other object hash) or to another Reference, in which case it is a
// symbolic reference.
type Reference struct {
	t      ReferenceType
	n      ReferenceName
	h      Hash
	target ReferenceName
}

// NewReferenceFromStrings creates a Reference from name and target as
// strings, used mainly in .git/packed-refs and .git/HEAD parsing.
func NewReferenceFromStrings(name, target string) *Reference {
	n := ReferenceName(name)

	if strings.HasPrefix(target, symrefPrefix) {
		target := ReferenceName(target[len(symrefPrefix):])
		return NewSymbolicReference(n, target)
	}

	return NewHashReference(n, NewHash(target))
}

// NewSymbolicReference creates a new SymbolicReference referencing to
// target.
func NewSymbolicReference(n, target ReferenceName) *Reference {
	return &Reference{
		t:      SymbolicReference,
		n:      n,
		target: target,
	}
}

// NewHashReference creates a new HashReference pointing to h.
func NewHashReference(n ReferenceName, h Hash) *Reference {
	return &Reference{
		t: HashReference,
		n: n,
		h: h,
	}
}

// Type returns the type of the reference.
func (r *Reference) Type() ReferenceType {
	return r.t
}

// Name returns the name of the reference.
func (r *Reference) Name() ReferenceName {
	return r.n
}

// Hash returns the hash of a hash reference.
func (r *Reference) Hash() Hash {
	return r.h
}

// Target returns the target of a symbolic reference.
func (r *Reference) Target() ReferenceName {
	return r.target
}

// String dumps the reference in the same format as .git/packed-refs, without
// the possible comments.
func (r *Reference) String() string {
	if r == nil {
		return ""
	}

	switch r.Type() {
	case HashReference:
		return fmt.Sprintf("%s %s", r.Hash().String(), r.Name())
	case SymbolicReference:
		return fmt.Sprintf("%s%s", symrefPrefix, r.Target())
	}

	return ""
}
