package offline

import "github.com/jaeles-project/sitemirror/internal/netutil"

// DomainRelation says how a reference's host relates to the host of the
// page it was found on (base) and to the host the crawl started from
// (initial).
type DomainRelation int

const (
	InitialSameBaseSame DomainRelation = iota + 1
	InitialSameBaseDifferent
	InitialDifferentBaseSame
	InitialDifferentBaseDifferent
)

func (r DomainRelation) String() string {
	switch r {
	case InitialSameBaseSame:
		return "INITIAL_SAME__BASE_SAME"
	case InitialSameBaseDifferent:
		return "INITIAL_SAME__BASE_DIFFERENT"
	case InitialDifferentBaseSame:
		return "INITIAL_DIFFERENT__BASE_SAME"
	case InitialDifferentBaseDifferent:
		return "INITIAL_DIFFERENT__BASE_DIFFERENT"
	default:
		return "UNKNOWN"
	}
}

// ClassifyDomainRelation compares hosts including non-default ports. A
// target without a host is relative and therefore lives on the base host.
func ClassifyDomainRelation(initial, base, target *netutil.ParsedURL) DomainRelation {
	targetHost := target.HostWithPort()
	if target.Host == "" || targetHost == base.HostWithPort() {
		if base.HostWithPort() == initial.HostWithPort() {
			return InitialSameBaseSame
		}
		return InitialDifferentBaseSame
	}
	if targetHost == initial.HostWithPort() {
		return InitialSameBaseDifferent
	}
	return InitialDifferentBaseDifferent
}
