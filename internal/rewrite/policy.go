// Package rewrite turns annotations about one gene into annotations about
// another: ortholog transfer between species and protein-to-gene
// reassignment within one species. Every rewrite is all-or-nothing and
// leaves its input untouched.
package rewrite

import "slices"

// ProvenancePolicy decides the provided-by authority of a rewritten record.
type ProvenancePolicy interface {
	Apply(prior string) string
}

// ReplaceIfFrom replaces the authority with Target only when the prior
// authority is one of Sources; any other authority is kept.
type ReplaceIfFrom struct {
	Sources []string
	Target  string
}

func (p ReplaceIfFrom) Apply(prior string) string {
	if slices.Contains(p.Sources, prior) {
		return p.Target
	}
	return prior
}

// AlwaysReplace sets the authority to Target unconditionally.
type AlwaysReplace struct {
	Target string
}

func (p AlwaysReplace) Apply(string) string { return p.Target }

// KeepProvenance leaves the authority as it was.
type KeepProvenance struct{}

func (KeepProvenance) Apply(prior string) string { return prior }
