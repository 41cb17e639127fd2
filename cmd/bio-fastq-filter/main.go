// Copyright 2021 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

/*
bio-fastq-filter drops FASTQ reads that fail length or quality thresholds
and streams the remaining reads to an output file.

  bio-fastq-filter -l 50 -q 20 -o out.fastq.gz in.fastq.gz
*/

import (
	"flag"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/fastqfilter/encoding/fastq"
	"github.com/grailbio/fastqfilter/pipeline"
	"v.io/x/lib/cmdline"
)

type filterFlags struct {
	output        string
	level         int
	minLength     int
	maxLength     int
	errorRate     float64
	meanQuality   float64
	medianQuality float64
	phredOffset   int
}

// registerInt adds an int flag under both its short and long name.
func registerInt(fs *flag.FlagSet, p *int, short, long string, value int, usage string) {
	fs.IntVar(p, long, value, usage)
	fs.IntVar(p, short, value, "Shorthand for -"+long)
}

func registerFloat(fs *flag.FlagSet, p *float64, short, long string, usage string) {
	fs.Float64Var(p, long, 0, usage)
	fs.Float64Var(p, short, 0, "Shorthand for -"+long)
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	d := pipeline.DefaultOpts
	fs.StringVar(&f.output, "output", fastq.Stdio, `Output FASTQ path, "-" for stdout.
The output is gzip-compressed if the path ends in .gz and block-gzip-compressed
if it ends in .bgz or .bgzf. Stdout is never compressed.`)
	fs.StringVar(&f.output, "o", fastq.Stdio, "Shorthand for -output")
	registerInt(fs, &f.level, "c", "compression-level", d.CompressionLevel, "Compression level for .gz and .bgz outputs")
	registerInt(fs, &f.minLength, "l", "min-length", 0, "Drop reads shorter than this")
	registerInt(fs, &f.maxLength, "L", "max-length", 0, "Drop reads longer than this")
	registerFloat(fs, &f.errorRate, "e", "average-error-rate", `Drop reads whose average per-base error probability is above this.
The average is taken over 10^(-q/10) for every base quality q.
Equivalent to -mean-quality with -10*log10(rate), e.g. '-e 0.001' is '-q 30'.`)
	registerFloat(fs, &f.meanQuality, "q", "mean-quality", `Drop reads whose mean quality is below this phred score.
The mean is computed in error-probability space, see -average-error-rate.`)
	registerFloat(fs, &f.medianQuality, "Q", "median-quality", "Drop reads whose median phred score is below this")
	fs.IntVar(&f.phredOffset, "phred-offset", d.PhredOffset, "ASCII offset of quality scores")
}

// opts converts parsed flags to pipeline options. Only flags that were set
// on the command line produce filters.
func (f *filterFlags) opts(fs *flag.FlagSet) pipeline.Opts {
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	isSet := func(short, long string) bool { return set[short] || set[long] }

	opts := pipeline.DefaultOpts
	opts.CompressionLevel = f.level
	opts.PhredOffset = f.phredOffset
	if isSet("l", "min-length") {
		v := f.minLength
		opts.MinLength = &v
	}
	if isSet("L", "max-length") {
		v := f.maxLength
		opts.MaxLength = &v
	}
	if isSet("e", "average-error-rate") {
		v := f.errorRate
		opts.AverageErrorRate = &v
	}
	if isSet("q", "mean-quality") {
		v := f.meanQuality
		opts.MeanQuality = &v
	}
	if isSet("Q", "median-quality") {
		v := f.medianQuality
		opts.MedianQuality = &v
	}
	return opts
}

func newCmdRoot() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "bio-fastq-filter",
		Short: "Filter FASTQ reads by length and quality",
		Long: `
bio-fastq-filter reads a FASTQ file, drops every read that fails one of the
requested thresholds, and writes the remaining reads in input order.
All thresholds are inclusive. Compressed input (gzip, bgzf, bzip2, zstd) is
detected automatically; "-" reads stdin.
`,
		ArgsName: "input",
	}
	var f filterFlags
	f.register(&cmd.Flags)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("bio-fastq-filter takes one input path, but got %v", argv)
		}
		_, err := pipeline.Run(vcontext.Background(), argv[0], f.output, f.opts(&cmd.Flags))
		return err
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
