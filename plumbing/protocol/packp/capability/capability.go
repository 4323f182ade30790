// Package capability defines the capabilities announced and requested
// during the reference-discovery and negotiation phases of the smart
// HTTP and SSH protocols.
package capability

import (
	"fmt"
	"os"
)

// Capability is a token a client or server can advertise or request,
// optionally carrying one or more string arguments.
type Capability string

// The set of capabilities understood by this package. Capabilities
// outside this set are still accepted (as unknown, permissive
// capabilities) so that peers advertising newer extensions don't
// break negotiation.
const (
	MultiACK                 Capability = "multi_ack"
	MultiACKDetailed         Capability = "multi_ack_detailed"
	NoDone                   Capability = "no-done"
	ThinPack                 Capability = "thin-pack"
	Sideband                 Capability = "side-band"
	Sideband64k              Capability = "side-band-64k"
	OFSDelta                 Capability = "ofs-delta"
	Agent                    Capability = "agent"
	Shallow                  Capability = "shallow"
	DeepenSince              Capability = "deepen-since"
	DeepenNot                Capability = "deepen-not"
	DeepenRelative           Capability = "deepen-relative"
	NoProgress               Capability = "no-progress"
	IncludeTag               Capability = "include-tag"
	ReportStatus             Capability = "report-status"
	DeleteRefs               Capability = "delete-refs"
	Quiet                    Capability = "quiet"
	Atomic                   Capability = "atomic"
	PushOptions              Capability = "push-options"
	AllowTipSHA1InWant       Capability = "allow-tip-sha1-in-want"
	AllowReachableSHA1InWant Capability = "allow-reachable-sha1-in-want"
	PushCert                 Capability = "push-cert"
	SymRef                   Capability = "symref"
	ObjectFormat             Capability = "object-format"
	Filter                   Capability = "filter"
)

// argumentRule describes how many arguments a known capability accepts.
type argumentRule int

const (
	// noArgument capabilities are bare flags.
	noArgument argumentRule = iota
	// singleArgument capabilities carry exactly one value; adding a
	// second value, in the same Add call or a later one, is an error.
	singleArgument
	// multiArgument capabilities accumulate every value ever added.
	multiArgument
)

type rule struct {
	arguments argumentRule
	required  bool
}

var known = map[Capability]rule{
	MultiACK:                 {noArgument, false},
	MultiACKDetailed:         {noArgument, false},
	NoDone:                   {noArgument, false},
	ThinPack:                 {noArgument, false},
	Sideband:                 {noArgument, false},
	Sideband64k:              {noArgument, false},
	OFSDelta:                 {noArgument, false},
	Shallow:                  {noArgument, false},
	DeepenSince:              {noArgument, false},
	DeepenNot:                {noArgument, false},
	DeepenRelative:           {noArgument, false},
	NoProgress:               {noArgument, false},
	IncludeTag:               {noArgument, false},
	ReportStatus:             {noArgument, false},
	DeleteRefs:               {noArgument, false},
	Quiet:                    {noArgument, false},
	Atomic:                   {noArgument, false},
	PushOptions:              {noArgument, false},
	AllowTipSHA1InWant:       {noArgument, false},
	AllowReachableSHA1InWant: {noArgument, false},
	PushCert:                 {singleArgument, true},
	Agent:                    {singleArgument, true},
	ObjectFormat:             {singleArgument, true},
	Filter:                   {singleArgument, true},
	SymRef:                   {multiArgument, true},
}

// unknownRule is used for any Capability not present in known: a
// permissive rule that accepts zero or more arguments.
var unknownRule = rule{multiArgument, false}

func ruleFor(c Capability) rule {
	if r, ok := known[c]; ok {
		return r
	}
	return unknownRule
}

const userAgent = "gitcore/5.0"

// DefaultAgent returns the agent string this implementation announces,
// extended with the GO_GIT_USER_AGENT_EXTRA environment variable when
// set.
func DefaultAgent() string {
	if extra := os.Getenv("GO_GIT_USER_AGENT_EXTRA"); extra != "" {
		return fmt.Sprintf("%s %s", userAgent, extra)
	}

	return userAgent
}
