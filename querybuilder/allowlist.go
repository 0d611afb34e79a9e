package querybuilder

import (
	"fmt"
	"regexp"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// AllowList is the fixed, ordered set of columns a builder accepts from
// caller data. Columns are emitted in declaration order.
type AllowList struct {
	fields []string
	index  map[string]struct{}
}

func NewAllowList(fields ...string) (AllowList, error) {
	a := AllowList{
		fields: make([]string, 0, len(fields)),
		index:  make(map[string]struct{}, len(fields)),
	}

	for _, f := range fields {
		if !validIdentifier(f) {
			return AllowList{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, f)
		}
		if _, dup := a.index[f]; dup {
			continue
		}
		a.index[f] = struct{}{}
		a.fields = append(a.fields, f)
	}

	return a, nil
}

// MustAllowList is NewAllowList for package-level declarations.
func MustAllowList(fields ...string) AllowList {
	a, err := NewAllowList(fields...)
	if err != nil {
		panic(err)
	}

	return a
}

func (a AllowList) Contains(field string) bool {
	_, ok := a.index[field]
	return ok
}

func (a AllowList) Len() int {
	return len(a.fields)
}

// Fields returns a copy of the declared columns.
func (a AllowList) Fields() []string {
	out := make([]string, len(a.fields))
	copy(out, a.fields)

	return out
}

// Pick returns the permitted keys present in data, in declaration order.
// Keys outside the list are dropped.
func (a AllowList) Pick(data map[string]any) []string {
	picked := make([]string, 0, len(data))

	for _, f := range a.fields {
		if _, ok := data[f]; ok {
			picked = append(picked, f)
		}
	}

	return picked
}
