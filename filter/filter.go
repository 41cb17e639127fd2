// Copyright 2021 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package filter implements threshold predicates over FASTQ reads and their
// composition into a chain.
//
// A Filter is a small value: a Kind selecting the derived property (sequence
// length, mean quality or median quality), a threshold, and the phred offset
// used to decode quality strings.  All thresholds are inclusive.  Filters
// hold no mutable state and may be shared by any number of goroutines.
package filter

import (
	"fmt"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/fastqfilter/encoding/fastq"
	"github.com/grailbio/fastqfilter/qual"
)

// Kind selects the property a Filter tests.
type Kind uint8

const (
	// MinLength passes reads with len(Seq) >= Threshold.
	MinLength Kind = iota
	// MaxLength passes reads with len(Seq) <= Threshold.
	MaxLength
	// MeanQuality passes reads with qual.Mean(Qual) >= Threshold.
	MeanQuality
	// MedianQuality passes reads with qual.Median(Qual) >= Threshold.
	MedianQuality
)

var kindNames = [...]string{
	MinLength:     "min-length",
	MaxLength:     "max-length",
	MeanQuality:   "mean-quality",
	MedianQuality: "median-quality",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// cost orders kinds by evaluation cost. Length is O(1); both quality
// statistics walk the quality string, and the median also scans a histogram.
func (k Kind) cost() int {
	switch k {
	case MinLength, MaxLength:
		return 0
	case MeanQuality:
		return 1
	}
	return 2
}

// Filter is a single threshold predicate over a read.
type Filter struct {
	Kind      Kind
	Threshold float64
	// Offset is the phred offset of quality strings. It is unused by length
	// filters.
	Offset byte
}

// NewMinLength returns a filter that passes reads at least n bases long.
func NewMinLength(n int) Filter {
	return Filter{Kind: MinLength, Threshold: float64(n)}
}

// NewMaxLength returns a filter that passes reads at most n bases long.
func NewMaxLength(n int) Filter {
	return Filter{Kind: MaxLength, Threshold: float64(n)}
}

// NewMeanQuality returns a filter that passes reads whose mean quality,
// averaged in error-probability space, is at least phred.
func NewMeanQuality(phred float64) Filter {
	return Filter{Kind: MeanQuality, Threshold: phred, Offset: qual.DefaultOffset}
}

// NewAverageErrorRate returns the mean-quality filter equivalent to an
// average per-base error rate.  A read passes if its mean error probability
// is at most rate, i.e. its mean quality is at least -10*log10(rate).  Rate
// must be in (0, 1].
func NewAverageErrorRate(rate float64) (Filter, error) {
	phred, err := qual.ErrorRateToPhred(rate)
	if err != nil {
		return Filter{}, errors.E(errors.Invalid, err)
	}
	return NewMeanQuality(phred), nil
}

// NewMedianQuality returns a filter that passes reads whose median quality is
// at least phred.
func NewMedianQuality(phred float64) Filter {
	return Filter{Kind: MedianQuality, Threshold: phred, Offset: qual.DefaultOffset}
}

// WithOffset returns a copy of f that decodes quality strings with the given
// phred offset.
func (f Filter) WithOffset(offset byte) Filter {
	f.Offset = offset
	return f
}

// Value returns the property of r that f compares against its threshold.
// It fails with qual.ErrEmpty when a quality statistic is requested for a
// read with no bases.
func (f Filter) Value(r *fastq.Read) (float64, error) {
	switch f.Kind {
	case MinLength, MaxLength:
		return float64(len(r.Seq)), nil
	case MeanQuality:
		return qual.Mean(r.Qual, f.Offset)
	case MedianQuality:
		return qual.Median(r.Qual, f.Offset)
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("filter: unknown kind %d", f.Kind))
}

// Pass reports whether r satisfies f.
func (f Filter) Pass(r *fastq.Read) (bool, error) {
	// Length filters skip the float conversion on the hot path.
	switch f.Kind {
	case MinLength:
		return float64(len(r.Seq)) >= f.Threshold, nil
	case MaxLength:
		return float64(len(r.Seq)) <= f.Threshold, nil
	}
	v, err := f.Value(r)
	if err != nil {
		return false, err
	}
	return v >= f.Threshold, nil
}

// String describes the comparison, e.g. "mean-quality >= 30".
func (f Filter) String() string {
	op := ">="
	if f.Kind == MaxLength {
		op = "<="
	}
	return fmt.Sprintf("%v %s %s", f.Kind, op, strconv.FormatFloat(f.Threshold, 'g', -1, 64))
}
