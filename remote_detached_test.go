package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreforge/gitcore/config"
)

func TestDetachedRemoteFetchAndPushReturnErrDetached(t *testing.T) {
	r := NewRemoteDetached("https://example.com/repo.git")

	err := r.Fetch(&FetchOptions{})
	assert.ErrorIs(t, err, ErrDetached)

	err = r.Push(&PushOptions{})
	assert.ErrorIs(t, err, ErrDetached)
}

func TestNewRemoteIsDetached(t *testing.T) {
	r := NewRemote(nil, &config.RemoteConfig{Name: "origin", URL: "https://example.com/repo.git"})

	err := r.Fetch(&FetchOptions{})
	assert.ErrorIs(t, err, ErrDetached)
}

func TestCreateRemoteAnonymousIsAttachedAndUnnamed(t *testing.T) {
	repo, _ := newBareRepo(t)

	r, err := repo.CreateRemoteAnonymous("https://example.com/repo.git")
	require.NoError(t, err)
	assert.Equal(t, "", r.Config().Name)

	cfg, err := repo.Config()
	require.NoError(t, err)
	_, ok := cfg.Remotes[""]
	assert.False(t, ok, "anonymous remote must not be persisted to config")
}

func TestCreateRemoteWithOptionsSkipsDefaultFetchSpec(t *testing.T) {
	repo, _ := newBareRepo(t)

	r, err := repo.CreateRemoteWithOptions("https://example.com/repo.git", &config.CreateOptions{
		Name:  "origin",
		Flags: config.SkipDefaultFetchSpec,
	})
	require.NoError(t, err)
	assert.Empty(t, r.Config().Fetch)
}

func TestCreateRemoteWithOptionsInstallsDefaultFetchSpecByDefault(t *testing.T) {
	repo, _ := newBareRepo(t)

	r, err := repo.CreateRemoteWithOptions("https://example.com/repo.git", &config.CreateOptions{
		Name: "origin",
	})
	require.NoError(t, err)
	require.Len(t, r.Config().Fetch, 1)
	assert.Equal(t, "+refs/heads/*:refs/remotes/origin/*", r.Config().Fetch[0].String())
}

func TestCreateRemoteWithOptionsAppliesInsteadOfUnlessSkipped(t *testing.T) {
	repo, st := newBareRepo(t)

	cfg, err := st.Config()
	require.NoError(t, err)
	cfg.URLs["https://example.com/"] = &config.URL{
		Name:       "https://example.com/",
		InsteadOfs: []string{"short://"},
	}
	require.NoError(t, st.SetConfig(cfg))

	applied, err := repo.CreateRemoteWithOptions("short://repo.git", &config.CreateOptions{Name: "applied"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/repo.git", applied.Config().URL)

	skipped, err := repo.CreateRemoteWithOptions("short://repo.git", &config.CreateOptions{
		Name:  "skipped",
		Flags: config.SkipInsteadOf,
	})
	require.NoError(t, err)
	assert.Equal(t, "short://repo.git", skipped.Config().URL)
}
