package dtnsim

// contact-id.go defines the immutable value that names a scheduled contact, the
// sentinel identities used as search roots and terminals, and the total orders
// over node names and identities that keep every routing decision deterministic

import (
	"cmp"
	"fmt"
	"math"
	"strings"
)

// ContactID identifies a contact by value. Two ContactIDs with equal fields are the
// same contact, so the struct is used directly as a map key everywhere.
// Times are in simulated milliseconds, Datarate in bits per millisecond.
type ContactID struct {
	From     string  `json:"from" yaml:"from"`
	To       string  `json:"to" yaml:"to"`
	Start    float64 `json:"start" yaml:"start"`
	End      float64 `json:"end" yaml:"end"`
	Datarate float64 `json:"datarate" yaml:"datarate"`
	Delay    float64 `json:"delay" yaml:"delay"`
}

// NodeVertex returns the sentinel identity of a node. It is a self contact that is
// open for all time with unbounded rate, and it serves as both the root of searches
// starting at the node and the terminal of searches ending there.
func NodeVertex(node string) ContactID {
	return ContactID{From: node, To: node, Start: 0, End: math.Inf(1), Datarate: math.Inf(1), Delay: 0}
}

// IsSentinel is true for the per-node root/terminal vertices
func (cid ContactID) IsSentinel() bool {
	return cid.From == cid.To
}

// Capacity is the number of bits the contact can carry over its whole window
func (cid ContactID) Capacity() float64 {
	return (cid.End - cid.Start) * cid.Datarate
}

// Valid reports whether the identity can name a real contact
func (cid ContactID) Valid() bool {
	if cid.From == "" || cid.To == "" || cid.IsSentinel() {
		return false
	}
	if math.IsNaN(cid.Start) || math.IsNaN(cid.End) || cid.End < cid.Start {
		return false
	}
	return cid.Datarate > 0 && cid.Delay >= 0
}

func (cid ContactID) String() string {
	if cid.IsSentinel() {
		return fmt.Sprintf("%s[*]", cid.From)
	}
	return fmt.Sprintf("%s->%s[%g,%g]", cid.From, cid.To, cid.Start, cid.End)
}

// NodeOrder is a total order over node names, returning a negative number
// when a sorts before b, zero when they are equal and positive otherwise.
// It breaks ties between otherwise equal routing choices.
type NodeOrder func(a, b string) int

// LexicalOrder orders node names by byte-wise string comparison
func LexicalOrder(a, b string) int {
	return strings.Compare(a, b)
}

// ReverseLexicalOrder is the mirror of LexicalOrder, useful to check that
// results depend on the order only where ties occur
func ReverseLexicalOrder(a, b string) int {
	return strings.Compare(b, a)
}

// NodeOrderByName maps the names accepted in configuration files to orders
func NodeOrderByName(name string) (NodeOrder, error) {
	switch name {
	case "", "lexical":
		return LexicalOrder, nil
	case "reverse":
		return ReverseLexicalOrder, nil
	}
	return nil, newSimError(ErrInvalidArgument, "unknown node order %q", name)
}

// CompareContactIDs is a total order over identities: node names first under the
// given order, then the numeric fields
func CompareContactIDs(a, b ContactID, order NodeOrder) int {
	if order == nil {
		order = LexicalOrder
	}
	if c := order(a.From, b.From); c != 0 {
		return c
	}
	if c := order(a.To, b.To); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.End, b.End); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Datarate, b.Datarate); c != 0 {
		return c
	}
	return cmp.Compare(a.Delay, b.Delay)
}
