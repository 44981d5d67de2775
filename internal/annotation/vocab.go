package annotation

import (
	"errors"
	"fmt"
	"strings"

	"gopreprocess/internal/curie"
)

var (
	// ErrUnknownEvidence is returned for evidence codes with no ECO mapping.
	ErrUnknownEvidence = errors.New("unknown evidence code")
	// ErrUnknownRelation is returned for relations with no RO mapping.
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrBadTaxon is returned for taxon values outside the NCBITaxon space.
	ErrBadTaxon = errors.New("bad taxon")
)

// ISOEvidence is ECO:0000266, "sequence orthology evidence used in manual
// assertion", the type of every annotation inferred through an ortholog.
var ISOEvidence = curie.New("ECO", "0000266")

// gafToECO holds the default ECO class for each GAF evidence code.
var gafToECO = map[string]string{
	"EXP": "0000269",
	"IDA": "0000314",
	"IPI": "0000353",
	"IMP": "0000315",
	"IGI": "0000316",
	"IEP": "0000270",
	"HTP": "0006056",
	"HDA": "0007005",
	"HMP": "0007001",
	"HGI": "0007003",
	"HEP": "0007007",
	"ISS": "0000250",
	"ISO": "0000266",
	"ISA": "0000247",
	"ISM": "0000255",
	"IGC": "0000317",
	"IBA": "0000318",
	"IBD": "0000319",
	"IKR": "0000320",
	"IRD": "0000321",
	"RCA": "0000245",
	"TAS": "0000304",
	"NAS": "0000303",
	"IC":  "0000305",
	"ND":  "0000307",
	"IEA": "0000501",
}

// ecoToGAF is the inverse of gafToECO plus the non-default ECO classes that
// collapse onto a GAF code.
var ecoToGAF = func() map[string]string {
	m := map[string]string{
		"0000256": "IEA",
		"0000203": "IEA",
		"0000363": "IEA",
	}
	for code, eco := range gafToECO {
		m[eco] = code
	}
	return m
}()

// EvidenceFromGAF maps a three-letter GAF evidence code to its ECO class.
func EvidenceFromGAF(code string) (curie.Curie, error) {
	eco, ok := gafToECO[code]
	if !ok {
		return curie.Curie{}, fmt.Errorf("%w: %q", ErrUnknownEvidence, code)
	}
	return curie.New("ECO", eco), nil
}

// EvidenceToGAF maps an ECO class back to a GAF evidence code.
func EvidenceToGAF(eco curie.Curie) (string, error) {
	if eco.Namespace == "ECO" {
		if code, ok := ecoToGAF[eco.Identity]; ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownEvidence, eco)
}

type relationInfo struct {
	id     curie.Curie
	aspect Aspect
}

var relations = map[string]relationInfo{
	"enables":                                    {curie.New("RO", "0002327"), AspectFunction},
	"contributes_to":                             {curie.New("RO", "0002326"), AspectFunction},
	"involved_in":                                {curie.New("RO", "0002331"), AspectProcess},
	"acts_upstream_of":                           {curie.New("RO", "0002263"), AspectProcess},
	"acts_upstream_of_positive_effect":           {curie.New("RO", "0004034"), AspectProcess},
	"acts_upstream_of_negative_effect":           {curie.New("RO", "0004035"), AspectProcess},
	"acts_upstream_of_or_within":                 {curie.New("RO", "0002264"), AspectProcess},
	"acts_upstream_of_or_within_positive_effect": {curie.New("RO", "0004032"), AspectProcess},
	"acts_upstream_of_or_within_negative_effect": {curie.New("RO", "0004033"), AspectProcess},
	"located_in":                                 {curie.New("RO", "0001025"), AspectComponent},
	"part_of":                                    {curie.New("BFO", "0000050"), AspectComponent},
	"is_active_in":                               {curie.New("RO", "0002432"), AspectComponent},
	"colocalizes_with":                           {curie.New("RO", "0002325"), AspectComponent},
}

var relationByID = func() map[curie.Curie]string {
	m := make(map[curie.Curie]string, len(relations))
	for label, info := range relations {
		m[info.id] = label
	}
	return m
}()

// KnownRelation reports whether label is a GO annotation relation.
func KnownRelation(label string) bool {
	_, ok := relations[label]
	return ok
}

// RelationID returns the RO (or BFO) curie of a relation label.
func RelationID(label string) (curie.Curie, error) {
	info, ok := relations[label]
	if !ok {
		return curie.Curie{}, fmt.Errorf("%w: %q", ErrUnknownRelation, label)
	}
	return info.id, nil
}

// RelationLabel is the inverse of RelationID.
func RelationLabel(id curie.Curie) (string, error) {
	label, ok := relationByID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRelation, id)
	}
	return label, nil
}

// AspectForRelation returns the aspect implied by a relation, or "" if the
// relation is unknown.
func AspectForRelation(label string) Aspect {
	return relations[label].aspect
}

// DefaultRelation is the relation GAF 2.1 implies for rows without one.
func DefaultRelation(aspect Aspect) string {
	switch aspect {
	case AspectFunction:
		return "enables"
	case AspectProcess:
		return "involved_in"
	case AspectComponent:
		return "located_in"
	}
	return ""
}

// ParseTaxon accepts "taxon:N" or "NCBITaxon:N" and returns NCBITaxon:N.
func ParseTaxon(s string) (curie.Curie, error) {
	c, err := curie.Parse(s)
	if err != nil {
		return curie.Curie{}, err
	}
	switch c.Namespace {
	case "taxon", "NCBITaxon", "NCBITAXON":
	default:
		return curie.Curie{}, fmt.Errorf("%w: %q", ErrBadTaxon, s)
	}
	for _, r := range c.Identity {
		if r < '0' || r > '9' {
			return curie.Curie{}, fmt.Errorf("%w: %q", ErrBadTaxon, s)
		}
	}
	return curie.New("NCBITaxon", c.Identity), nil
}

// WireTaxon renders a taxon in the "taxon:N" form of GAF and GPAD 1.2.
func WireTaxon(c curie.Curie) string {
	if c.IsZero() {
		return ""
	}
	return "taxon:" + c.Identity
}

// ParseWithFrom parses a with/from cell: '|' separates alternatives, ','
// separates members of one alternative.
func ParseWithFrom(s string) ([][]curie.Curie, error) {
	if s == "" {
		return nil, nil
	}
	var out [][]curie.Curie
	for _, group := range strings.Split(s, "|") {
		cs, err := curie.ParseList(group, ",")
		if err != nil {
			return nil, err
		}
		if len(cs) > 0 {
			out = append(out, cs)
		}
	}
	return out, nil
}

// FormatWithFrom is the inverse of ParseWithFrom.
func FormatWithFrom(groups [][]curie.Curie) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = curie.JoinList(g, ",")
	}
	return strings.Join(parts, "|")
}

// ParseExtensions parses an annotation extension cell such as
// "part_of(CL:0000001),occurs_in(UBERON:0000002)|has_input(MGI:MGI:1)".
func ParseExtensions(s string) ([][]Extension, error) {
	if s == "" {
		return nil, nil
	}
	var out [][]Extension
	for _, group := range strings.Split(s, "|") {
		var conj []Extension
		for _, unit := range strings.Split(group, ",") {
			unit = strings.TrimSpace(unit)
			if unit == "" {
				continue
			}
			open := strings.IndexByte(unit, '(')
			if open <= 0 || !strings.HasSuffix(unit, ")") {
				return nil, fmt.Errorf("%w: extension %q", curie.ErrMalformed, unit)
			}
			filler, err := curie.Parse(unit[open+1 : len(unit)-1])
			if err != nil {
				return nil, err
			}
			conj = append(conj, Extension{Relation: unit[:open], Filler: filler})
		}
		if len(conj) > 0 {
			out = append(out, conj)
		}
	}
	return out, nil
}

// FormatExtensions is the inverse of ParseExtensions.
func FormatExtensions(ext [][]Extension) string {
	groups := make([]string, len(ext))
	for i, conj := range ext {
		units := make([]string, len(conj))
		for j, e := range conj {
			units[j] = e.Relation + "(" + e.Filler.String() + ")"
		}
		groups[i] = strings.Join(units, ",")
	}
	return strings.Join(groups, "|")
}

// ParseProperties parses "key=value|key=value" annotation properties.
func ParseProperties(s string) []Property {
	if s == "" {
		return nil
	}
	var out []Property
	for _, kv := range strings.Split(s, "|") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		out = append(out, Property{Key: k, Value: v})
	}
	return out
}

// FormatProperties is the inverse of ParseProperties.
func FormatProperties(props []Property) string {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, "|")
}
