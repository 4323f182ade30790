// Package client contains helpers for picking a transport implementation
// for an endpoint out of the process-wide protocol table. New code should
// use transport.Register and transport.Get directly; this package remains
// for the CLI-facing surface built on InstallProtocol.
package client

import (
	"github.com/coreforge/gitcore/plumbing/transport"
	"github.com/coreforge/gitcore/plumbing/transport/file"
	"github.com/coreforge/gitcore/plumbing/transport/git"
	"github.com/coreforge/gitcore/plumbing/transport/http"
	"github.com/coreforge/gitcore/plumbing/transport/ssh"
)

// Protocols are the protocols supported by default.
var Protocols = map[string]transport.Transport{
	"http":  http.DefaultTransport,
	"https": http.DefaultTransport,
	"ssh":   ssh.DefaultTransport,
	"git":   git.DefaultClient,
	"file":  file.DefaultClient,
}

// InstallProtocol adds or modifies an existing protocol, both in this
// package's table and in the process-wide transport registry.
func InstallProtocol(scheme string, c transport.Transport) {
	Protocols[scheme] = c
	transport.Register(scheme, c)
}

// NewClient returns the appropriate client among of the set of known
// protocols: http://, https://, ssh://, git:// and file://.
// See `InstallProtocol` to add or modify protocols.
func NewClient(endpoint *transport.Endpoint) (transport.Transport, error) {
	if c, ok := Protocols[endpoint.Protocol]; ok {
		return c, nil
	}

	return transport.Get(endpoint.Protocol)
}
