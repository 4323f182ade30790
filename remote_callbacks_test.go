package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreforge/gitcore/config"
	"github.com/coreforge/gitcore/plumbing"
	"github.com/coreforge/gitcore/plumbing/protocol/packp"
	"github.com/coreforge/gitcore/storage/memory"
)

// TestReportPushedReferences covers the push pipeline's per-reference
// status hook: once the peer has accepted the pack, every pushed command
// is reported exactly once with a nil status.
func TestReportPushedReferences(t *testing.T) {
	r := newRemote(nil, memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URL:  "https://example.com/repo.git",
	})

	cmds := []*packp.Command{
		{Name: "refs/heads/main", Old: plumbing.ZeroHash, New: hashMain},
		{Name: "refs/heads/topic", Old: hashTopic, New: plumbing.ZeroHash},
	}

	type report struct {
		name   plumbing.ReferenceName
		status error
	}
	var reports []report
	r.reportPushedReferences(cmds, func(name plumbing.ReferenceName, status error) {
		reports = append(reports, report{name, status})
	})

	require.Len(t, reports, 2)
	assert.Equal(t, plumbing.ReferenceName("refs/heads/main"), reports[0].name)
	assert.NoError(t, reports[0].status)
	assert.Equal(t, plumbing.ReferenceName("refs/heads/topic"), reports[1].name)
	assert.NoError(t, reports[1].status)
}

// TestReportPushedReferencesNilCallback makes sure a push without the
// hook installed doesn't panic reporting into nothing.
func TestReportPushedReferencesNilCallback(t *testing.T) {
	r := newRemote(nil, memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URL:  "https://example.com/repo.git",
	})

	r.reportPushedReferences([]*packp.Command{{Name: "refs/heads/main"}}, nil)
}
