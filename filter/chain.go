package filter

import (
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/fastqfilter/encoding/fastq"
)

// Chain is the conjunction of a list of filters. The zero Chain passes every
// read.
type Chain []Filter

// NewChain returns a chain of the given filters, ordered so that cheap
// filters run first.  Filters of equal cost keep their relative order.
func NewChain(filters ...Filter) Chain {
	c := append(Chain(nil), filters...)
	sort.SliceStable(c, func(i, j int) bool { return c[i].Kind.cost() < c[j].Kind.cost() })
	return c
}

// Pass reports whether r satisfies every filter in c.
func (c Chain) Pass(r *fastq.Read) (bool, error) {
	i, err := c.Check(r)
	return i < 0 && err == nil, err
}

// Check evaluates the filters in order and stops at the first one that
// rejects r, returning its index. It returns -1 if r passes. Errors name the
// read and the filter that could not be evaluated.
func (c Chain) Check(r *fastq.Read) (int, error) {
	for i, f := range c {
		ok, err := f.Pass(r)
		if err != nil {
			return i, errors.E(err, "read", r.ID, f.String())
		}
		if !ok {
			return i, nil
		}
	}
	return -1, nil
}

// String implements fmt.Stringer.
func (c Chain) String() string {
	if len(c) == 0 {
		return "(no filters)"
	}
	s := make([]string, len(c))
	for i, f := range c {
		s[i] = f.String()
	}
	return strings.Join(s, " && ")
}
