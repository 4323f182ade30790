package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreforge/gitcore/config"
	"github.com/coreforge/gitcore/plumbing"
	"github.com/coreforge/gitcore/plumbing/object"
	"github.com/coreforge/gitcore/plumbing/storer"

	"github.com/go-git/go-billy/v5"
)

var (
	ErrObjectNotFound          = errors.New("object not found")
	ErrInvalidReference        = errors.New("invalid reference, should be a tag or a branch")
	ErrRepositoryNotExists     = errors.New("repository not exists")
	ErrRepositoryAlreadyExists = errors.New("repository already exists")
	ErrRemoteNotFound          = errors.New("remote not found")
	ErrRemoteExists            = errors.New("remote already exists")
	ErrWorktreeNotProvided     = errors.New("worktree should be provided")
	ErrIsBareRepository        = errors.New("worktree not available in a bare repository")
	ErrRemoteHEADNotFound      = errors.New("remote HEAD not found")
)

// Repository is a git repository backed by a Storer, with an optional
// worktree filesystem.
type Repository struct {
	r  map[string]*Remote
	s  Storer
	wt billy.Filesystem
}

// Init creates an empty git repository, based on the given Storer and worktree.
// The worktree Filesystem is optional, if nil a bare repository is created. If
// the given storer is not empty ErrRepositoryAlreadyExists is returned
func Init(s Storer, worktree billy.Filesystem) (*Repository, error) {
	r := newRepository(s, worktree)
	_, err := r.Reference(plumbing.HEAD, false)
	switch err {
	case plumbing.ErrReferenceNotFound:
	case nil:
		return nil, ErrRepositoryAlreadyExists
	default:
		return nil, err
	}

	h := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.Master)
	if err := s.SetReference(h); err != nil {
		return nil, err
	}

	if worktree == nil {
		r.setIsBare(true)
	}

	return r, nil
}

// Open opens a git repository using the given Storer and worktree filesystem,
// if the given storer is complete empty ErrRepositoryNotExists is returned.
// The worktree can be nil when the repository being opened is bare, if the
// repository is a normal one (not bare) and worktree is nil the err
// ErrWorktreeNotProvided is returned
func Open(s Storer, worktree billy.Filesystem) (*Repository, error) {
	_, err := s.Reference(plumbing.HEAD)
	if err == plumbing.ErrReferenceNotFound {
		return nil, ErrRepositoryNotExists
	}

	if err != nil {
		return nil, err
	}

	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}

	if !cfg.Core.IsBare && worktree == nil {
		return nil, ErrWorktreeNotProvided
	}

	return newRepository(s, worktree), nil
}

// Clone a repository into the given Storer and worktree Filesystem with the
// given options, if worktree is nil a bare repository is created. If the given
// storer is not empty ErrRepositoryAlreadyExists is returned
func Clone(s Storer, worktree billy.Filesystem, o *CloneOptions) (*Repository, error) {
	r, err := Init(s, worktree)
	if err != nil {
		return nil, err
	}

	return r, r.clone(o)
}

// Plain on-disk construction (PlainInit/PlainOpen/PlainClone in the
// teacher) is intentionally not exposed here: it requires
// storage/filesystem, whose dotgit.DotGit type is a retrieval-pack gap
// (see DESIGN.md) and is not reconstructed by this core. Callers that
// need an on-disk repository build their own storage.Storer (backed by
// a real dotgit implementation) and pass it to Init/Open/Clone, which
// never touch storage/filesystem.

func newRepository(s Storer, worktree billy.Filesystem) *Repository {
	return &Repository{
		s:  s,
		wt: worktree,
		r:  make(map[string]*Remote, 0),
	}
}

// Config return the repository config
func (r *Repository) Config() (*config.Config, error) {
	return r.s.Config()
}

// Remote return a remote if exists
func (r *Repository) Remote(name string) (*Remote, error) {
	cfg, err := r.s.Config()
	if err != nil {
		return nil, err
	}

	c, ok := cfg.Remotes[name]
	if !ok {
		return nil, ErrRemoteNotFound
	}

	return newRemote(r, r.s, c), nil
}

// Remotes return all the remotes
func (r *Repository) Remotes() ([]*Remote, error) {
	cfg, err := r.s.Config()
	if err != nil {
		return nil, err
	}

	remotes := make([]*Remote, len(cfg.Remotes))

	var i int
	for _, c := range cfg.Remotes {
		remotes[i] = newRemote(r, r.s, c)
		i++
	}

	return remotes, nil
}

// CreateRemote creates a new remote
func (r *Repository) CreateRemote(c *config.RemoteConfig) (*Remote, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	remote := newRemote(r, r.s, c)

	cfg, err := r.s.Config()
	if err != nil {
		return nil, err
	}

	if _, ok := cfg.Remotes[c.Name]; ok {
		return nil, ErrRemoteExists
	}

	cfg.Remotes[c.Name] = c
	return remote, r.s.SetConfig(cfg)
}

// CreateRemoteWithOptions implements spec §6's create_with_opts(url,
// opts): it builds the RemoteConfig for the caller from a bare URL and
// opts.Name/FetchSpec, honoring opts.Flags (SkipInsteadOf,
// SkipDefaultFetchSpec), then persists it exactly like CreateRemote.
func (r *Repository) CreateRemoteWithOptions(url string, o *config.CreateOptions) (*Remote, error) {
	if o == nil {
		o = &config.CreateOptions{}
	}

	canonical, err := config.CanonicalizeURL(url)
	if err != nil {
		return nil, err
	}

	c := &config.RemoteConfig{Name: o.Name, URL: canonical}
	if o.FetchSpec != nil {
		c.Fetch = []config.RefSpec{*o.FetchSpec}
	}

	if err := c.ValidateWithFlags(o.Flags); err != nil {
		return nil, err
	}

	if o.Flags&config.SkipInsteadOf == 0 {
		cfg, err := r.s.Config()
		if err != nil {
			return nil, err
		}
		c.ApplyURLRules(cfg.URLs)
	}

	remote := newRemote(r, r.s, c)

	cfg, err := r.s.Config()
	if err != nil {
		return nil, err
	}

	if _, ok := cfg.Remotes[c.Name]; ok {
		return nil, ErrRemoteExists
	}

	cfg.Remotes[c.Name] = c
	return remote, r.s.SetConfig(cfg)
}

// CreateRemoteAnonymous implements spec §6's create_anonymous(repo,
// url): a Remote bound to this repository (so Fetch/Push can still
// persist refs and FETCH_HEAD) but never written to config and with no
// Name, matching the "anonymous" lifecycle entry — a one-off remote
// used the way `git fetch <url>` is, without a tracked remote.
func (r *Repository) CreateRemoteAnonymous(url string) (*Remote, error) {
	canonical, err := config.CanonicalizeURL(url)
	if err != nil {
		return nil, err
	}

	return newRemote(r, r.s, &config.RemoteConfig{URL: canonical}), nil
}

// SetRemoteURL changes the fetch URL of the named remote. An empty url
// is rejected with ErrEmptyUrls: a remote with no fetch URL at all is
// unusable for every direction (push falls back to it), the same reason
// git refuses to delete a remote's last non-push URL.
func (r *Repository) SetRemoteURL(name, url string) error {
	if url == "" {
		return ErrEmptyUrls
	}

	canonical, err := config.CanonicalizeURL(url)
	if err != nil {
		return err
	}

	cfg, err := r.s.Config()
	if err != nil {
		return err
	}

	c, ok := cfg.Remotes[name]
	if !ok {
		return ErrRemoteNotFound
	}

	c.URL = canonical
	return r.s.SetConfig(cfg)
}

// SetRemotePushURL changes the push URL of the named remote. An empty
// url deletes the entry, making push fall back to the fetch URL again.
func (r *Repository) SetRemotePushURL(name, url string) error {
	cfg, err := r.s.Config()
	if err != nil {
		return err
	}

	c, ok := cfg.Remotes[name]
	if !ok {
		return ErrRemoteNotFound
	}

	if url == "" {
		c.PushURL = ""
		return r.s.SetConfig(cfg)
	}

	canonical, err := config.CanonicalizeURL(url)
	if err != nil {
		return err
	}

	c.PushURL = canonical
	return r.s.SetConfig(cfg)
}

// AddRemoteFetch appends a fetch refspec to the named remote without
// disturbing the ones already configured.
func (r *Repository) AddRemoteFetch(name string, spec config.RefSpec) error {
	return r.addRemoteRefSpec(name, spec, false)
}

// AddRemotePush appends a push refspec to the named remote without
// disturbing the ones already configured.
func (r *Repository) AddRemotePush(name string, spec config.RefSpec) error {
	return r.addRemoteRefSpec(name, spec, true)
}

func (r *Repository) addRemoteRefSpec(name string, spec config.RefSpec, push bool) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	cfg, err := r.s.Config()
	if err != nil {
		return err
	}

	c, ok := cfg.Remotes[name]
	if !ok {
		return ErrRemoteNotFound
	}

	if push {
		c.Push = append(c.Push, spec)
	} else {
		c.Fetch = append(c.Fetch, spec)
	}

	return r.s.SetConfig(cfg)
}

// DeleteRemote deletes a remote from the repository: any branch whose
// branch.<b>.remote points at it is detached from it, every local
// reference matching one of the remote's fetch refspec destinations is
// removed, and finally the remote's own config section is erased.
func (r *Repository) DeleteRemote(name string) error {
	cfg, err := r.s.Config()
	if err != nil {
		return err
	}

	c, ok := cfg.Remotes[name]
	if !ok {
		return ErrRemoteNotFound
	}

	for _, b := range cfg.Branches {
		if b.Remote == name {
			b.Remote = ""
			b.Merge = ""
		}
	}

	if err := r.removeReferencesMatchingDestinations(c.Fetch); err != nil {
		return err
	}

	delete(cfg.Remotes, name)
	return r.s.SetConfig(cfg)
}

// removeReferencesMatchingDestinations removes every reference whose
// name is matched as a destination by one of specs.
func (r *Repository) removeReferencesMatchingDestinations(specs []config.RefSpec) error {
	refs, err := r.References()
	if err != nil {
		return err
	}

	var toRemove []plumbing.ReferenceName
	if err := refs.ForEach(func(ref *plumbing.Reference) error {
		for _, spec := range specs {
			if spec.Reverse().Match(ref.Name()) {
				toRemove = append(toRemove, ref.Name())
				break
			}
		}
		return nil
	}); err != nil {
		return err
	}

	for _, name := range toRemove {
		if err := r.s.RemoveReference(name); err != nil {
			return err
		}
	}

	return nil
}

// RenameRemote renames a remote: its config section, every
// branch.<b>.remote reference to it, and every refs/remotes/<old>/*
// reference (including an in-namespace symref's target) are migrated
// to the new name. Fetch refspecs following the default
// "+refs/heads/*:refs/remotes/<old>/*" shape are rewritten to the new
// name; any other refspec is left untouched and its string form is
// returned in problems so the caller can report it, matching git's own
// "Not updating non-default fetch refspec" warning.
func (r *Repository) RenameRemote(oldName, newName string) (problems []string, err error) {
	cfg, err := r.s.Config()
	if err != nil {
		return nil, err
	}

	c, ok := cfg.Remotes[oldName]
	if !ok {
		return nil, ErrRemoteNotFound
	}

	if _, ok := cfg.Remotes[newName]; ok {
		return nil, ErrRemoteExists
	}

	for _, b := range cfg.Branches {
		if b.Remote == oldName {
			b.Remote = newName
		}
	}

	oldPrefix := plumbing.NewRemoteReferenceName(oldName, "")
	refs, err := r.References()
	if err != nil {
		return nil, err
	}

	var toRename []*plumbing.Reference
	if err := refs.ForEach(func(ref *plumbing.Reference) error {
		if strings.HasPrefix(ref.Name().String(), oldPrefix.String()) {
			toRename = append(toRename, ref)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	newPrefix := plumbing.NewRemoteReferenceName(newName, "")
	renameWithinNamespace := func(name plumbing.ReferenceName) plumbing.ReferenceName {
		suffix := strings.TrimPrefix(name.String(), oldPrefix.String())
		return plumbing.ReferenceName(newPrefix.String() + suffix)
	}

	for _, ref := range toRename {
		newRefName := renameWithinNamespace(ref.Name())

		var newRef *plumbing.Reference
		switch ref.Type() {
		case plumbing.SymbolicReference:
			target := ref.Target()
			if strings.HasPrefix(target.String(), oldPrefix.String()) {
				target = renameWithinNamespace(target)
			}
			newRef = plumbing.NewSymbolicReference(newRefName, target)
		default:
			newRef = plumbing.NewHashReference(newRefName, ref.Hash())
		}

		if err := r.s.SetReference(newRef); err != nil {
			return nil, err
		}
		if err := r.s.RemoveReference(ref.Name()); err != nil {
			return nil, err
		}
	}

	renamed := make([]config.RefSpec, 0, len(c.Fetch))
	defaultDst := fmt.Sprintf(config.DefaultFetchRefSpec, oldName)
	for _, spec := range c.Fetch {
		if spec.String() == defaultDst {
			renamed = append(renamed, config.RefSpec(fmt.Sprintf(config.DefaultFetchRefSpec, newName)))
			continue
		}

		renamed = append(renamed, spec)
		problems = append(problems, spec.String())
	}

	c.Name = newName
	c.Fetch = renamed

	delete(cfg.Remotes, oldName)
	cfg.Remotes[newName] = c

	return problems, r.s.SetConfig(cfg)
}

// DefaultBranch resolves the remote's advertised HEAD: if the peer's
// HEAD is a symbolic reference, its target is returned directly;
// otherwise, among the peer's refs/heads/* entries matching HEAD's
// hash, refs/heads/master is preferred, falling back to the first
// match found; if nothing matches, ErrRemoteHEADNotFound is returned.
func (r *Remote) DefaultBranch(refs []*plumbing.Reference) (plumbing.ReferenceName, error) {
	var head *plumbing.Reference
	var candidates []*plumbing.Reference

	for _, ref := range refs {
		if ref.Name() == plumbing.HEAD {
			head = ref
			continue
		}
		if ref.Name().IsBranch() {
			candidates = append(candidates, ref)
		}
	}

	if head == nil {
		return "", ErrRemoteHEADNotFound
	}

	if head.Type() == plumbing.SymbolicReference {
		return head.Target(), nil
	}

	var fallback plumbing.ReferenceName
	for _, ref := range candidates {
		if ref.Hash() != head.Hash() {
			continue
		}

		if ref.Name() == plumbing.Master {
			return ref.Name(), nil
		}

		if fallback == "" {
			fallback = ref.Name()
		}
	}

	if fallback == "" {
		return "", ErrRemoteHEADNotFound
	}

	return fallback, nil
}

// Clone clones a remote repository
func (r *Repository) clone(o *CloneOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	// this core never materializes a worktree; every repository it
	// manages is bare.
	if err := r.setIsBare(true); err != nil {
		return err
	}

	c := &config.RemoteConfig{
		Name: o.RemoteName,
		URL:  o.URL,
	}

	remote, err := r.CreateRemote(c)
	if err != nil {
		return err
	}

	remoteRefs, err := remote.fetch(context.Background(), &FetchOptions{
		RefSpecs: r.cloneRefSpec(o, c),
		Depth:    o.Depth,
		Auth:     o.Auth,
		Progress: o.Progress,
	})
	if err != nil {
		return err
	}

	head, err := storer.ResolveReference(remoteRefs, o.ReferenceName)
	if err != nil {
		return err
	}

	if _, err := r.updateReferences(c.Fetch, o.ReferenceName, head); err != nil {
		return err
	}

	return r.updateRemoteConfig(remote, o, c, head)
}

func (r *Repository) cloneRefSpec(o *CloneOptions,
	c *config.RemoteConfig) []config.RefSpec {

	if !o.SingleBranch {
		return c.Fetch
	}

	var rs string

	if o.ReferenceName == plumbing.HEAD {
		rs = fmt.Sprintf(refspecSingleBranchHEAD, c.Name)
	} else {
		rs = fmt.Sprintf(refspecSingleBranch,
			o.ReferenceName.Short(), c.Name)
	}

	return []config.RefSpec{config.RefSpec(rs)}
}

func (r *Repository) setIsBare(isBare bool) error {
	cfg, err := r.s.Config()
	if err != nil {
		return err
	}

	cfg.Core.IsBare = isBare
	return r.s.SetConfig(cfg)
}

const (
	refspecSingleBranch     = "+refs/heads/%s:refs/remotes/%s/%[1]s"
	refspecSingleBranchHEAD = "+HEAD:refs/remotes/%s/HEAD"
)

func (r *Repository) updateRemoteConfig(remote *Remote, o *CloneOptions,
	c *config.RemoteConfig, head *plumbing.Reference) error {

	if !o.SingleBranch {
		return nil
	}

	c.Fetch = []config.RefSpec{config.RefSpec(fmt.Sprintf(
		refspecSingleBranch, head.Name().Short(), c.Name,
	))}

	cfg, err := r.s.Config()
	if err != nil {
		return err
	}

	cfg.Remotes[c.Name] = c
	return r.s.SetConfig(cfg)
}

func (r *Repository) updateReferences(spec []config.RefSpec,
	headName plumbing.ReferenceName, resolvedHead *plumbing.Reference) (updated bool, err error) {

	if !resolvedHead.IsBranch() {
		// Detached HEAD mode
		head := plumbing.NewHashReference(plumbing.HEAD, resolvedHead.Hash())
		return updateReferenceStorerIfNeeded(r.s, head)
	}

	refs := []*plumbing.Reference{
		// Create local reference for the resolved head
		resolvedHead,
		// Create local symbolic HEAD
		plumbing.NewSymbolicReference(plumbing.HEAD, resolvedHead.Name()),
	}

	refs = append(refs, r.calculateRemoteHeadReference(spec, resolvedHead)...)

	for _, ref := range refs {
		u, err := updateReferenceStorerIfNeeded(r.s, ref)
		if err != nil {
			return updated, err
		}

		if u {
			updated = true
		}
	}

	return
}

func (r *Repository) calculateRemoteHeadReference(spec []config.RefSpec,
	resolvedHead *plumbing.Reference) []*plumbing.Reference {

	var refs []*plumbing.Reference

	// Create resolved HEAD reference with remote prefix if it does not
	// exist. This is needed when using single branch and HEAD.
	for _, rs := range spec {
		name := resolvedHead.Name()
		if !rs.Match(name) {
			continue
		}

		name = rs.Dst(name)
		_, err := r.s.Reference(name)
		if err == plumbing.ErrReferenceNotFound {
			refs = append(refs, plumbing.NewHashReference(name, resolvedHead.Hash()))
		}
	}

	return refs
}

func updateReferenceStorerIfNeeded(
	s storer.ReferenceStorer, r *plumbing.Reference) (updated bool, err error) {

	p, err := s.Reference(r.Name())
	if err != nil && err != plumbing.ErrReferenceNotFound {
		return false, err
	}

	// we use the string method to compare references, is the easiest way
	if err == plumbing.ErrReferenceNotFound || r.String() != p.String() {
		if err := s.SetReference(r); err != nil {
			return false, err
		}

		return true, nil
	}

	return false, nil
}

// checkAndUpdateReferenceStorerIfNeeded sets new unless the store already
// holds exactly that value for the name, using CheckAndSetReference so a
// concurrent change to old is caught rather than silently overwritten. This
// is the update-tips compare-and-swap: old is the previously resolved local
// value (nil if the ref didn't exist), new is what the peer advertised.
func checkAndUpdateReferenceStorerIfNeeded(
	s storer.ReferenceStorer, new, old *plumbing.Reference) (updated bool, err error) {

	if old != nil && new.String() == old.String() {
		return false, nil
	}

	if err := s.CheckAndSetReference(new, old); err != nil {
		return false, err
	}

	return true, nil
}

// Pull incorporates changes from a remote repository into the current branch.
// Returns nil if the operation is successful, NoErrAlreadyUpToDate if there are
// no changes to be fetched, or an error.
func (r *Repository) Pull(o *PullOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	remote, err := r.Remote(o.RemoteName)
	if err != nil {
		return err
	}

	remoteRefs, err := remote.fetch(context.Background(), &FetchOptions{
		Depth:    o.Depth,
		Auth:     o.Auth,
		Progress: o.Progress,
	})

	updated := true
	if err == NoErrAlreadyUpToDate {
		updated = false
	} else if err != nil {
		return err
	}

	head, err := storer.ResolveReference(remoteRefs, o.ReferenceName)
	if err != nil {
		return err
	}

	refsUpdated, err := r.updateReferences(remote.c.Fetch, o.ReferenceName, head)
	if err != nil {
		return err
	}

	if refsUpdated {
		updated = refsUpdated
	}

	if !updated {
		return NoErrAlreadyUpToDate
	}

	return nil
}

// Fetch fetches changes from a remote repository.
// Returns nil if the operation is successful, NoErrAlreadyUpToDate if there are
// no changes to be fetched, or an error.
func (r *Repository) Fetch(o *FetchOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	remote, err := r.Remote(o.RemoteName)
	if err != nil {
		return err
	}

	return remote.Fetch(o)
}

// Push pushes changes to a remote.
func (r *Repository) Push(o *PushOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	remote, err := r.Remote(o.RemoteName)
	if err != nil {
		return err
	}

	return remote.Push(o)
}

// Commit return the commit with the given hash
func (r *Repository) Commit(h plumbing.Hash) (*object.Commit, error) {
	return object.GetCommit(r.s, h)
}

// Commits decode the objects into commits
func (r *Repository) Commits() (*object.CommitIter, error) {
	iter, err := r.s.IterEncodedObjects(plumbing.CommitObject)
	if err != nil {
		return nil, err
	}

	return object.NewCommitIter(r.s, iter), nil
}

// Tree return the tree with the given hash
func (r *Repository) Tree(h plumbing.Hash) (*object.Tree, error) {
	return object.GetTree(r.s, h)
}

// Trees decodes the objects into trees
func (r *Repository) Trees() (*object.TreeIter, error) {
	iter, err := r.s.IterEncodedObjects(plumbing.TreeObject)
	if err != nil {
		return nil, err
	}

	return object.NewTreeIter(r.s, iter), nil
}

// Blob returns the blob with the given hash
func (r *Repository) Blob(h plumbing.Hash) (*object.Blob, error) {
	return object.GetBlob(r.s, h)
}

// Blobs decodes the objects into blobs
func (r *Repository) Blobs() (*object.BlobIter, error) {
	iter, err := r.s.IterEncodedObjects(plumbing.BlobObject)
	if err != nil {
		return nil, err
	}

	return object.NewBlobIter(r.s, iter), nil
}

// Tag returns a tag with the given hash.
func (r *Repository) Tag(h plumbing.Hash) (*object.Tag, error) {
	return object.GetTag(r.s, h)
}

// Tags returns a object.TagIter that can step through all of the annotated tags
// in the repository.
func (r *Repository) Tags() (*object.TagIter, error) {
	iter, err := r.s.IterEncodedObjects(plumbing.TagObject)
	if err != nil {
		return nil, err
	}

	return object.NewTagIter(r.s, iter), nil
}

// Object returns an object with the given hash.
func (r *Repository) Object(t plumbing.ObjectType, h plumbing.Hash) (object.Object, error) {
	obj, err := r.s.EncodedObject(t, h)
	if err != nil {
		if err == plumbing.ErrObjectNotFound {
			return nil, ErrObjectNotFound
		}

		return nil, err
	}

	return object.DecodeObject(r.s, obj)
}

// Objects returns an object.ObjectIter that can step through all of the objects
// in the repository.
func (r *Repository) Objects() (*object.ObjectIter, error) {
	iter, err := r.s.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return nil, err
	}

	return object.NewObjectIter(r.s, iter), nil
}

// Head returns the reference where HEAD is pointing to.
func (r *Repository) Head() (*plumbing.Reference, error) {
	return storer.ResolveReference(r.s, plumbing.HEAD)
}

// Reference returns the reference for a given reference name. If resolved is
// true, any symbolic reference will be resolved.
func (r *Repository) Reference(name plumbing.ReferenceName, resolved bool) (
	*plumbing.Reference, error) {

	if resolved {
		return storer.ResolveReference(r.s, name)
	}

	return r.s.Reference(name)
}

// References returns a ReferenceIter for all references.
func (r *Repository) References() (storer.ReferenceIter, error) {
	return r.s.IterReferences()
}

// IsBare reports whether the repository was opened without a
// worktree filesystem. This core operates purely on the object and
// reference store; it never checks files out.
func (r *Repository) IsBare() bool {
	return r.wt == nil
}
