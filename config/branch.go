package config

import (
	"errors"

	"github.com/coreforge/gitcore/plumbing"
	format "github.com/coreforge/gitcore/plumbing/format/config"
)

var (
	remoteKey = "remote"

	errBranchInvalidMerge = errors.New("branch config: invalid merge")
)

// Branch defines a local branch and the remote-tracking configuration
// that `git pull`/`git push` use by default for it, equivalent to the
// "[branch \"name\"]" sections of a config file.
type Branch struct {
	// Name of the branch.
	Name string
	// Remote name of the remote to be pulled from.
	Remote string
	// Merge is the local refspec that is merged into this branch.
	Merge plumbing.ReferenceName
	// Rebase instead of merge when pulling. Valid values are "true" and
	// "interactive".
	Rebase string

	// raw representation of the subsection, filled by marshal or
	// unmarshal when they are called.
	raw *format.Subsection
}

// Validate validates the fields and returns an error if the branch is
// malformed.
func (b *Branch) Validate() error {
	if b.Name == "" {
		return ErrInvalid
	}

	if b.Merge != "" && !b.Merge.IsBranch() {
		return errBranchInvalidMerge
	}

	return nil
}

func (b *Branch) marshal() *format.Subsection {
	if b.raw == nil {
		b.raw = &format.Subsection{}
	}

	b.raw.Name = b.Name

	if b.Remote == "" {
		b.raw.RemoveOption(remoteKey)
	} else {
		b.raw.SetOption(remoteKey, b.Remote)
	}

	if b.Merge == "" {
		b.raw.RemoveOption(mergeKey)
	} else {
		b.raw.SetOption(mergeKey, string(b.Merge))
	}

	if b.Rebase == "" {
		b.raw.RemoveOption(rebaseKey)
	} else {
		b.raw.SetOption(rebaseKey, b.Rebase)
	}

	return b.raw
}

func (b *Branch) unmarshal(s *format.Subsection) error {
	b.raw = s

	b.Name = b.raw.Name
	b.Remote = b.raw.Option(remoteKey)
	b.Merge = plumbing.ReferenceName(b.raw.Option(mergeKey))
	b.Rebase = b.raw.Option(rebaseKey)

	return b.Validate()
}
