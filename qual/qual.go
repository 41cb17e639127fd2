// Copyright 2021 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package qual implements phred-score arithmetic over FASTQ quality strings.
//
// Mean aggregates in error-probability space: each score q is converted to
// p = 10^(-q/10), the probabilities are averaged, and the average is
// converted back to a phred score.  A single very low quality base therefore
// pulls the aggregate down in proportion to its real error contribution.
// Median aggregates the raw integer scores.  The two are intentionally
// computed in different domains.
package qual

import (
	"errors"
	"fmt"
	"math"
)

// DefaultOffset is the Sanger/Illumina 1.8+ phred offset.
const DefaultOffset = 33

// ErrEmpty is returned when a statistic is requested over an empty quality
// string.
var ErrEmpty = errors.New("quality statistic of an empty quality string")

// nScore is the number of scores with a precomputed error probability.
const nScore = 256

// errProbs[q] = 10^(-q/10).
var errProbs [nScore]float64

func init() {
	for i := range errProbs {
		errProbs[i] = math.Exp(float64(i) * (-0.1 * math.Ln10))
	}
}

// Score returns the phred score encoded by the quality byte b.
func Score(b, offset byte) int {
	return int(b) - int(offset)
}

// ErrorProb returns the error probability 10^(-score/10).
func ErrorProb(score int) float64 {
	if score >= 0 && score < nScore {
		return errProbs[score]
	}
	return math.Pow(10, float64(score)/-10)
}

// Phred converts an error probability to a phred score.
func Phred(p float64) float64 {
	return -10 * math.Log10(p)
}

// ErrorRateToPhred converts an error rate in (0, 1] to the equivalent phred
// score.  For example, 0.001 converts to 30.
func ErrorRateToPhred(rate float64) (float64, error) {
	if !(rate > 0 && rate <= 1) {
		return 0, fmt.Errorf("error rate %v outside (0, 1]", rate)
	}
	return Phred(rate), nil
}

// PhredToErrorRate converts a phred score to an error rate.
func PhredToErrorRate(phred float64) float64 {
	return math.Pow(10, phred/-10)
}

// Mean returns -10*log10 of the mean per-base error probability of q.
func Mean(q string, offset byte) (float64, error) {
	if len(q) == 0 {
		return 0, ErrEmpty
	}
	var sum float64
	for i := 0; i < len(q); i++ {
		sum += ErrorProb(Score(q[i], offset))
	}
	return Phred(sum / float64(len(q))), nil
}

// Median returns the median phred score of q.  For an even number of bases
// it is the average of the two middle scores.
func Median(q string, offset byte) (float64, error) {
	n := len(q)
	if n == 0 {
		return 0, ErrEmpty
	}
	// Counting sort over the byte values; the offset is applied at the end.
	var hist [256]int
	for i := 0; i < n; i++ {
		hist[q[i]]++
	}
	lo := nth(&hist, (n-1)/2)
	hi := lo
	if n%2 == 0 {
		hi = nth(&hist, n/2)
	}
	return float64(Score(lo, offset)+Score(hi, offset)) / 2, nil
}

// nth returns the k'th smallest (0-based) byte counted in hist.
func nth(hist *[256]int, k int) byte {
	seen := 0
	for b, c := range hist {
		seen += c
		if seen > k {
			return byte(b)
		}
	}
	panic("qual: rank out of range")
}
