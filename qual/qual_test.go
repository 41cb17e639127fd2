package qual_test

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/grailbio/fastqfilter/qual"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
)

var qualStrings = []string{
	"I?>DC:>@?IDC9??G?>EH9E@66=9<?@E?DC:@<@BBFG>=FIC@F9>7CG?IC?I;CD9>>>A@C7>>" +
		"8>>D9GCB<;?DD>C;9?>5G>?H?=6@>:G6B<?==A7?@???8IF<75C=@A:BEA@A;C89D:=1?=<A" +
		">D=>B66C",
	"C:@?;8@=DC???>E>E;98BBB?9D=?@B;D?I:??FD8CH?A7?<H>ABD@C@C?>;;B<><;9@8BAFD" +
		"?;:>I3DB<?<B=?A??CI>2E>><BD?A??FCBCE?DAI><B:8D>?C>@BA=F<>7=E=?DC=@9GG=>?" +
		"C@><CA;>",
}

func encode(scores ...int) string {
	b := make([]byte, len(scores))
	for i, s := range scores {
		b[i] = byte(s + qual.DefaultOffset)
	}
	return string(b)
}

func scores(q string) []int {
	s := make([]int, len(q))
	for i := range q {
		s[i] = int(q[i]) - qual.DefaultOffset
	}
	return s
}

func referenceMean(s []int) float64 {
	var sum float64
	for _, q := range s {
		sum += math.Pow(10, float64(q)/-10)
	}
	return -10 * math.Log10(sum/float64(len(s)))
}

func referenceMedian(s []int) float64 {
	s = append([]int(nil), s...)
	sort.Ints(s)
	n := len(s)
	if n%2 == 1 {
		return float64(s[n/2])
	}
	return float64(s[n/2-1]+s[n/2]) / 2
}

func randomQual(r *rand.Rand, n int) string {
	s := make([]int, n)
	for i := range s {
		s[i] = r.Intn(42)
	}
	return encode(s...)
}

func TestMean(t *testing.T) {
	for _, q := range qualStrings {
		got, err := qual.Mean(q, qual.DefaultOffset)
		expect.NoError(t, err)
		assert.InEpsilon(t, referenceMean(scores(q)), got, 1e-12)
	}
	r := rand.New(rand.NewSource(0))
	for i := 0; i < 1000; i++ {
		q := randomQual(r, 1+r.Intn(200))
		got, err := qual.Mean(q, qual.DefaultOffset)
		expect.NoError(t, err)
		assert.InDelta(t, referenceMean(scores(q)), got, 1e-9, "qual %q", q)
	}
}

func TestMeanIsNotArithmeticMean(t *testing.T) {
	// One bad base dominates the error-probability average.
	got, err := qual.Mean(encode(40, 40, 40, 0), qual.DefaultOffset)
	expect.NoError(t, err)
	assert.InDelta(t, referenceMean([]int{40, 40, 40, 0}), got, 1e-9)
	expect.True(t, got < 7, "mean %v", got)
}

func TestMeanUniform(t *testing.T) {
	got, err := qual.Mean(encode(9, 9, 9), qual.DefaultOffset)
	expect.NoError(t, err)
	assert.InDelta(t, 9.0, got, 1e-9)
}

func TestMedian(t *testing.T) {
	for _, q := range qualStrings {
		got, err := qual.Median(q, qual.DefaultOffset)
		expect.NoError(t, err)
		expect.EQ(t, got, referenceMedian(scores(q)))
	}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		q := randomQual(r, 1+r.Intn(200))
		got, err := qual.Median(q, qual.DefaultOffset)
		expect.NoError(t, err)
		expect.EQ(t, got, referenceMedian(scores(q)))
	}
}

func TestMedianSmall(t *testing.T) {
	tests := []struct {
		scores []int
		want   float64
	}{
		{[]int{7}, 7},
		{[]int{9, 9, 9, 10, 10}, 9},
		{[]int{1, 1, 1, 8, 9, 9, 9}, 8},
		{[]int{10, 1}, 5.5},
		{[]int{30, 2, 40, 20}, 25},
	}
	for _, test := range tests {
		got, err := qual.Median(encode(test.scores...), qual.DefaultOffset)
		expect.NoError(t, err)
		expect.EQ(t, got, test.want, "scores %v", test.scores)
	}
}

func TestOffset(t *testing.T) {
	// Illumina 1.3+ encoding.
	q := "hhhh"
	mean, err := qual.Mean(q, 64)
	expect.NoError(t, err)
	assert.InDelta(t, 40.0, mean, 1e-9)
	median, err := qual.Median(q, 64)
	expect.NoError(t, err)
	expect.EQ(t, median, 40.0)
}

func TestEmpty(t *testing.T) {
	_, err := qual.Mean("", qual.DefaultOffset)
	expect.EQ(t, err, qual.ErrEmpty)
	_, err = qual.Median("", qual.DefaultOffset)
	expect.EQ(t, err, qual.ErrEmpty)
}

func TestErrorRate(t *testing.T) {
	p, err := qual.ErrorRateToPhred(0.001)
	expect.NoError(t, err)
	assert.InDelta(t, 30.0, p, 1e-9)
	p, err = qual.ErrorRateToPhred(1)
	expect.NoError(t, err)
	assert.InDelta(t, 0.0, p, 1e-15)
	assert.InDelta(t, 0.01, qual.PhredToErrorRate(20), 1e-15)
	for _, bad := range []float64{0, -0.5, 1.5, math.NaN()} {
		_, err := qual.ErrorRateToPhred(bad)
		expect.NotNil(t, err, "rate %v", bad)
	}
}

func TestErrorProb(t *testing.T) {
	for _, score := range []int{-5, 0, 10, 93, 255, 300} {
		assert.InEpsilon(t, math.Pow(10, float64(score)/-10), qual.ErrorProb(score), 1e-12)
	}
}
