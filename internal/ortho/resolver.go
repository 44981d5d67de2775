package ortho

import (
	"gopreprocess/internal/curie"
	"gopreprocess/internal/gpi"
)

// Options selects which pairs the resolver considers.
type Options struct {
	SourceTaxon curie.Curie
	TargetTaxon curie.Curie
	// MinRelationship drops weaker calls. Candidate keeps everything.
	MinRelationship Relationship
}

// Stats counts what happened to each pair. None of these are errors.
type Stats struct {
	// Pairs counts every pair offered through Add or AddRecord.
	Pairs            int
	OtherTaxa        int
	BelowThreshold   int
	DroppedUnindexed int
	// Ambiguous counts source genes left out because they resolve to more
	// than one target gene.
	Ambiguous int
	Accepted  int
}

// Mapping is a read-only source-gene to target-gene map.
type Mapping struct {
	m map[curie.Curie]curie.Curie
}

// NewMapping copies m into a Mapping.
func NewMapping(m map[curie.Curie]curie.Curie) Mapping {
	cp := make(map[curie.Curie]curie.Curie, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Mapping{m: cp}
}

// Lookup returns the target gene for source.
func (m Mapping) Lookup(source curie.Curie) (curie.Curie, bool) {
	t, ok := m.m[source]
	return t, ok
}

func (m Mapping) Len() int { return len(m.m) }

// Resolver accumulates ortholog pairs against a target gene index.
type Resolver struct {
	index   *gpi.Index
	opts    Options
	targets map[curie.Curie]map[curie.Curie]struct{}
	stats   Stats
}

func NewResolver(index *gpi.Index, opts Options) *Resolver {
	if opts.MinRelationship == "" {
		opts.MinRelationship = Candidate
	}
	return &Resolver{
		index:   index,
		opts:    opts,
		targets: make(map[curie.Curie]map[curie.Curie]struct{}),
	}
}

// Add considers one pair. Pairs between other taxa, weaker than the
// threshold, or whose target gene is missing from the index are dropped.
func (r *Resolver) Add(p Pair) {
	rec, ok := p.Orient(r.opts.SourceTaxon, r.opts.TargetTaxon)
	if !ok {
		r.stats.Pairs++
		r.stats.OtherTaxa++
		return
	}
	r.AddRecord(rec)
}

// AddRecord considers an already oriented record.
func (r *Resolver) AddRecord(rec Record) {
	r.stats.Pairs++
	if !rec.Relationship.AtLeast(r.opts.MinRelationship) {
		r.stats.BelowThreshold++
		return
	}
	if !r.index.Has(rec.Target) {
		r.stats.DroppedUnindexed++
		return
	}
	set, ok := r.targets[rec.Source]
	if !ok {
		set = make(map[curie.Curie]struct{}, 1)
		r.targets[rec.Source] = set
	}
	set[rec.Target] = struct{}{}
}

// Result builds the mapping. A source gene with several distinct targets
// is excluded and counted as ambiguous rather than resolved to any one.
func (r *Resolver) Result() (Mapping, Stats) {
	stats := r.stats
	m := make(map[curie.Curie]curie.Curie, len(r.targets))
	for src, set := range r.targets {
		if len(set) != 1 {
			stats.Ambiguous++
			continue
		}
		for t := range set {
			m[src] = t
		}
	}
	stats.Accepted = len(m)
	return Mapping{m: m}, stats
}
