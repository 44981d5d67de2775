// Package curie implements compact identifiers of the form namespace:identity.
package curie

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned for text that is not a namespace:identity pair.
var ErrMalformed = errors.New("malformed curie")

// Curie is a compact identifier. The zero value is the empty curie.
type Curie struct {
	Namespace string
	Identity  string
}

// New builds a curie without validation.
func New(namespace, identity string) Curie {
	return Curie{Namespace: namespace, Identity: identity}
}

// Parse splits s at its first colon and validates both halves.
func Parse(s string) (Curie, error) {
	i := strings.IndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return Curie{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	c := Curie{Namespace: s[:i], Identity: s[i+1:]}
	if !validNamespace(c.Namespace) || !validIdentity(c.Identity) {
		return Curie{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return c, nil
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Curie {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseList parses a list of curies separated by sep, skipping empty items.
func ParseList(s string, sep string) ([]Curie, error) {
	if s == "" {
		return nil, nil
	}
	var out []Curie
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// String renders namespace:identity, or "" for the zero value.
func (c Curie) String() string {
	if c.IsZero() {
		return ""
	}
	return c.Namespace + ":" + c.Identity
}

// IsZero reports whether c is the empty curie.
func (c Curie) IsZero() bool {
	return c.Namespace == "" && c.Identity == ""
}

// JoinList renders curies separated by sep.
func JoinList(cs []Curie, sep string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, sep)
}

// prefixedLocalIDs lists namespaces whose local identifiers repeat the
// namespace in the DB_Object_ID column (MGI rows read "MGI\tMGI:97490").
var prefixedLocalIDs = map[string]bool{
	"MGI": true,
}

// FromDBObject combines the DB and DB_Object_ID columns of GAF, GPAD 1.2 and
// GPI 1.2 rows. A doubled prefix ("MGI" + "MGI:97490") collapses to MGI:97490.
func FromDBObject(db, id string) (Curie, error) {
	if prefixedLocalIDs[db] {
		id = strings.TrimPrefix(id, db+":")
	}
	return Parse(db + ":" + id)
}

// Normalize collapses a doubled prefix such as MGI:MGI:97490.
func Normalize(c Curie) Curie {
	if prefixedLocalIDs[c.Namespace] {
		c.Identity = strings.TrimPrefix(c.Identity, c.Namespace+":")
	}
	return c
}

// DBObject splits c into DB and DB_Object_ID column values, the inverse of
// FromDBObject.
func (c Curie) DBObject() (db, id string) {
	if prefixedLocalIDs[c.Namespace] {
		return c.Namespace, c.Namespace + ":" + c.Identity
	}
	return c.Namespace, c.Identity
}

func validNamespace(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_' || r == '.' || r == '-'):
		default:
			return false
		}
	}
	return s != ""
}

func validIdentity(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n|")
}
