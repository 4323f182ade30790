package git

import (
	"errors"

	"github.com/coreforge/gitcore/config"
	"github.com/coreforge/gitcore/plumbing"
	"github.com/coreforge/gitcore/plumbing/protocol/packp/sideband"
	"github.com/coreforge/gitcore/plumbing/transport"
	"github.com/coreforge/gitcore/storage"
)

// Storer is the interface a Repository and its Remotes are backed by:
// objects, references and config, with no assumption about where they
// actually live.
type Storer = storage.Storer

var (
	// ErrMissingURL is returned when an empty URL is passed to Clone.
	ErrMissingURL = errors.New("URL field is required")
	// ErrMissingName is returned when a RemoteName/RemoteURL is
	// required but absent.
	ErrMissingName = errors.New("remote name is required")
	// ErrInvalidRefSpec is returned when a refspec fails to parse.
	ErrInvalidRefSpec = errors.New("invalid refspec")
	// ErrInvalidReferenceName is returned when CloneOptions.ReferenceName
	// or PullOptions.ReferenceName is empty.
	ErrInvalidReferenceName = errors.New("reference name is empty")
)

// CloneOptions describes how a repository should be cloned.
type CloneOptions struct {
	// URL of the remote to clone from.
	URL string
	// Auth credentials, if required, to use with the remote repository.
	Auth transport.AuthMethod
	// RemoteName is the name the cloned remote is created under.
	// Defaults to "origin".
	RemoteName string
	// ReferenceName to checkout after the clone is completed, defaults
	// to the HEAD reference advertised by the remote.
	ReferenceName plumbing.ReferenceName
	// SingleBranch limits fetching to only ReferenceName, pruning all
	// other refs from the created remote's fetch refspec.
	SingleBranch bool
	// Depth limits the fetch to the last Depth commits of each ref,
	// creating a shallow clone. Zero means no limit.
	Depth int
	// Progress is where human-readable transfer progress is written.
	// Nil discards it.
	Progress sideband.Progress
	// Tags decides which tags, if any, are followed during the clone.
	Tags plumbing.TagMode
	// InsecureSkipTLS skips TLS certificate verification when connecting
	// over HTTPS. Always false unless explicitly requested.
	InsecureSkipTLS bool
	// CABundle is an optional PEM-encoded certificate bundle to use
	// instead of the system trust store.
	CABundle []byte
	// ProxyOptions configures an HTTP/SOCKS proxy for the transport.
	ProxyOptions transport.ProxyOptions
}

// Validate validates the fields and sets the default values.
func (o *CloneOptions) Validate() error {
	if o.URL == "" {
		return ErrMissingURL
	}

	if o.RemoteName == "" {
		o.RemoteName = DefaultRemoteName
	}

	if o.ReferenceName == "" {
		o.ReferenceName = plumbing.HEAD
	}

	if o.Tags == plumbing.InvalidTagMode {
		o.Tags = plumbing.TagFollowing
	}

	return nil
}

// PullOptions describes how a fetch-and-fast-forward should be carried
// out against a single remote.
type PullOptions struct {
	// RemoteName of the remote to pull from. Defaults to "origin".
	RemoteName string
	// ReferenceName to resolve and fast-forward to. Defaults to HEAD.
	ReferenceName plumbing.ReferenceName
	// SingleBranch limits the fetch to ReferenceName.
	SingleBranch bool
	// Depth limits the fetch to the last Depth commits, zero means no
	// limit.
	Depth int
	// Auth credentials to use with the remote repository.
	Auth transport.AuthMethod
	// Progress is where human-readable transfer progress is written.
	Progress sideband.Progress
	// Force allows the pull to update references even when it would
	// not be a fast-forward.
	Force bool
}

// Validate validates the fields and sets the default values.
func (o *PullOptions) Validate() error {
	if o.RemoteName == "" {
		o.RemoteName = DefaultRemoteName
	}

	if o.ReferenceName == "" {
		o.ReferenceName = plumbing.HEAD
	}

	return nil
}

// PruneOption is a three-valued prune override: a caller-requested fetch
// can force pruning on or off regardless of the remote's own configured
// policy, or defer to it entirely.
type PruneOption int8

const (
	// PruneUnspecified defers to the remote's configured prune policy
	// (remote.<name>.prune, falling back to fetch.prune).
	PruneUnspecified PruneOption = iota
	// PruneForce prunes regardless of what the remote is configured to do.
	PruneForce
	// PruneDisable never prunes, regardless of what the remote is
	// configured to do.
	PruneDisable
)

// FetchOptions describes how objects and refs should be fetched from a
// single remote.
type FetchOptions struct {
	// RemoteName to fetch from. Defaults to the Remote's own config
	// name when fetching through a Repository.
	RemoteName string
	// RemoteURL overrides the remote's configured URL, when set.
	RemoteURL string
	// RefSpecs to fetch. Defaults to the remote's configured Fetch
	// refspecs.
	RefSpecs []config.RefSpec
	// Depth limits the fetch to the last Depth commits, zero means no
	// limit.
	Depth int
	// Auth credentials to use with the remote repository.
	Auth transport.AuthMethod
	// Progress is where human-readable transfer progress is written.
	Progress sideband.Progress
	// Tags decides which tags, if any, are followed.
	Tags plumbing.TagMode
	// Force allows fetch to update local references even when it
	// would not be a fast-forward.
	Force bool
	// Prune overrides the remote's own prune policy for this call.
	// PruneUnspecified defers to RemoteConfig.EffectivePrune.
	Prune PruneOption
	// InsecureSkipTLS skips TLS certificate verification.
	InsecureSkipTLS bool
	// CABundle is an optional PEM-encoded certificate bundle to use
	// instead of the system trust store.
	CABundle []byte
	// ProxyOptions configures an HTTP/SOCKS proxy for the transport.
	ProxyOptions transport.ProxyOptions
	// Callbacks carry hooks for observing fetch progress beyond what
	// Progress reports, such as per-reference update notifications.
	Callbacks Callbacks
}

// Callbacks carry optional observer hooks for a fetch or push. Every
// field may be left nil; callbacks that run concurrently with the
// operation (UpdateTips) are invoked synchronously from the goroutine
// performing the update, never in parallel with each other.
type Callbacks struct {
	// UpdateTips is called once for every reference the operation
	// creates, fast-forwards, forces, or prunes, after the local store
	// has already been updated. old is the zero hash for a newly
	// created reference; new is the zero hash for a pruned one.
	UpdateTips func(name plumbing.ReferenceName, old, new plumbing.Hash)
	// PushUpdateReference is called once per pushed reference after the
	// peer has reported the outcome of the update. status is nil when
	// the peer accepted the update.
	PushUpdateReference func(name plumbing.ReferenceName, status error)
	// CertificateCheck is consulted during the TLS handshake for https
	// remotes, in addition to (or, with InsecureSkipTLS, instead of)
	// standard certificate verification. Nil leaves the default
	// verification behavior unchanged.
	CertificateCheck transport.CertificateCheckCallback
}

// Validate validates the fields and sets the default values.
func (o *FetchOptions) Validate() error {
	if o.Tags == plumbing.InvalidTagMode {
		o.Tags = plumbing.TagFollowing
	}

	for _, r := range o.RefSpecs {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ForceWithLease augments a ref update with a compare-and-swap check
// against what the pusher last saw for that ref on the remote.
type ForceWithLease struct {
	// RefName is the reference the lease applies to. Empty matches
	// every ref being pushed.
	RefName plumbing.ReferenceName
	// Hash is the expected current remote value. The zero hash means
	// "use whatever was fetched last into the corresponding
	// remote-tracking ref".
	Hash plumbing.Hash
}

// PushOptions describes how local commits and refs should be pushed to
// a single remote.
type PushOptions struct {
	// RemoteName to push to. Must match the Remote this is called on.
	RemoteName string
	// RemoteURL overrides the remote's configured push URL, when set.
	RemoteURL string
	// RefSpecs describing the local-to-remote ref mapping to push.
	// Defaults to the remote's configured Push refspecs.
	RefSpecs []config.RefSpec
	// Auth credentials to use with the remote repository.
	Auth transport.AuthMethod
	// Progress is where human-readable transfer progress is written.
	Progress sideband.Progress
	// Prune removes remote refs that don't exist locally and match a
	// RefSpec.
	Prune bool
	// Force allows non-fast-forward updates for every RefSpec that
	// doesn't already carry a "+" prefix.
	Force bool
	// ForceWithLease requires the remote ref to still be at the value
	// last observed locally before accepting a forced update.
	ForceWithLease *ForceWithLease
	// RequireRemoteRefs aborts the push unless every listed ref is at
	// the given value on the remote.
	RequireRemoteRefs []config.RefSpec
	// FollowTags also pushes any annotated tag reachable from what is
	// being pushed.
	FollowTags bool
	// InsecureSkipTLS skips TLS certificate verification.
	InsecureSkipTLS bool
	// CABundle is an optional PEM-encoded certificate bundle to use
	// instead of the system trust store.
	CABundle []byte
	// ProxyOptions configures an HTTP/SOCKS proxy for the transport.
	ProxyOptions transport.ProxyOptions
	// Atomic requests that the server apply every command or none.
	Atomic bool
	// Options are extra push-options forwarded to the remote's
	// pre-receive hook.
	Options map[string]string
	// Callbacks carry hooks for observing the push beyond what Progress
	// reports, such as per-reference status notifications.
	Callbacks Callbacks
}

// Validate validates the fields and sets the default values.
func (o *PushOptions) Validate() error {
	if o.RemoteName == "" {
		o.RemoteName = DefaultRemoteName
	}

	for _, r := range o.RefSpecs {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	for _, r := range o.RequireRemoteRefs {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// PeelingOption determines which references a ListOptions call
// returns: direct refs, their peeled (dereferenced) counterparts, or
// both.
type PeelingOption int8

const (
	// IgnorePeeled ignores references with a peeled suffix entirely.
	IgnorePeeled PeelingOption = iota
	// AppendPeeled appends peeled references after their direct ones.
	AppendPeeled
	// OnlyPeeled returns only peeled references.
	OnlyPeeled
)

// ListOptions describes how a remote reference listing should be
// carried out.
type ListOptions struct {
	// Auth credentials to use with the remote repository.
	Auth transport.AuthMethod
	// InsecureSkipTLS skips TLS certificate verification.
	InsecureSkipTLS bool
	// CABundle is an optional PEM-encoded certificate bundle to use
	// instead of the system trust store.
	CABundle []byte
	// ProxyOptions configures an HTTP/SOCKS proxy for the transport.
	ProxyOptions transport.ProxyOptions
	// PeelingOption selects which of the direct/peeled reference pairs
	// are returned.
	PeelingOption PeelingOption
	// Timeout for the whole listing operation, in seconds. Zero uses a
	// default of 10 seconds; negative is an error.
	Timeout int
	// Callbacks carry connection-time hooks, such as the certificate
	// check consulted while establishing an https session.
	Callbacks Callbacks
}

// DefaultRemoteName is the remote name used when one isn't given
// explicitly, matching git's own convention.
const DefaultRemoteName = "origin"
