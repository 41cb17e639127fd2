// Copyright 2021 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package pipeline streams FASTQ reads from a source through a filter.Chain
// to a sink.
//
// The pipeline is pull-based: FilteringScanner asks its source for one read,
// evaluates the chain, and either hands the read to its caller or asks for
// the next one.  Nothing beyond the current read is retained, so memory use
// does not depend on input size.  Run wires the stream to files opened with
// encoding/fastq, which handles compression on both ends.
//
// Any error (I/O, FASTQ format, or a quality statistic requested for a read
// with no bases) aborts the run.  There is no retry or resumption.
package pipeline
