package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/fastqfilter/encoding/fastq"
	"github.com/grailbio/fastqfilter/filter"
)

// Source is a stream of reads. *fastq.Scanner implements it.  Once Scan
// returns false it must keep returning false; Err then reports why the
// stream ended, or nil at end of input.
type Source interface {
	Scan(r *fastq.Read) bool
	Err() error
}

// Sink consumes reads. *fastq.Writer and *fastq.OutFile implement it.
type Sink interface {
	Write(r *fastq.Read) error
}

// Stats counts reads seen by a FilteringScanner.
type Stats struct {
	// Chain is the chain the counts refer to.
	Chain filter.Chain
	// In is the number of reads pulled from the source.
	In int64
	// Out is the number of reads that passed every filter.
	Out int64
	// Rejected[i] is the number of reads rejected by Chain[i]. A read is
	// charged to the first filter that rejects it.
	Rejected []int64
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d reads in, %d reads out", s.In, s.Out)
	for i, n := range s.Rejected {
		fmt.Fprintf(&b, "; %d rejected by %v", n, s.Chain[i])
	}
	return b.String()
}

// FilteringScanner yields the reads of a source that pass a chain, in source
// order.  It is itself a Source, so it composes with anything that consumes
// one.  It is not threadsafe.
type FilteringScanner struct {
	src   Source
	chain filter.Chain
	stats Stats
	err   error
}

// NewFilteringScanner returns a scanner over the reads of src that pass chain.
func NewFilteringScanner(src Source, chain filter.Chain) *FilteringScanner {
	return &FilteringScanner{
		src:   src,
		chain: chain,
		stats: Stats{Chain: chain, Rejected: make([]int64, len(chain))},
	}
}

// Scan advances to the next passing read and stores it in r.  It pulls from
// the source only as far as needed to find that read.
func (s *FilteringScanner) Scan(r *fastq.Read) bool {
	if s.err != nil {
		return false
	}
	for s.src.Scan(r) {
		s.stats.In++
		i, err := s.chain.Check(r)
		if err != nil {
			s.err = err
			return false
		}
		if i < 0 {
			s.stats.Out++
			return true
		}
		s.stats.Rejected[i]++
	}
	s.err = s.src.Err()
	return false
}

// Err returns the error that stopped the scan, if any.
func (s *FilteringScanner) Err() error { return s.err }

// Stats returns the counts so far.
func (s *FilteringScanner) Stats() Stats {
	st := s.stats
	st.Rejected = append([]int64(nil), s.stats.Rejected...)
	return st
}

// Filter writes the reads of src that pass chain to sink.  It stops at the
// first source, filter, or sink error.
func Filter(src Source, chain filter.Chain, sink Sink) (Stats, error) {
	fs := NewFilteringScanner(src, chain)
	var r fastq.Read
	for fs.Scan(&r) {
		if err := sink.Write(&r); err != nil {
			return fs.Stats(), err
		}
	}
	return fs.Stats(), fs.Err()
}

// Run filters the FASTQ file at inPath into outPath.  Either path may be "-"
// for stdin or stdout.  Compression is detected from the input content and
// chosen for the output by its extension.
func Run(ctx context.Context, inPath, outPath string, opts Opts) (Stats, error) {
	chain, err := opts.Filters()
	if err != nil {
		return Stats{}, err
	}
	log.Debug.Printf("%s -> %s: %v", inPath, outPath, chain)
	in, err := fastq.Open(ctx, inPath)
	if err != nil {
		return Stats{}, err
	}
	out, err := fastq.Create(ctx, outPath, opts.CompressionLevel)
	if err != nil {
		_ = in.Close(ctx)
		return Stats{}, err
	}
	var e errors.Once
	stats, err := Filter(in.Scanner(), chain, out)
	e.Set(err)
	e.Set(out.Close(ctx))
	e.Set(in.Close(ctx))
	if err := e.Err(); err != nil {
		return stats, err
	}
	log.Printf("%s: %v", inPath, stats)
	return stats, nil
}
