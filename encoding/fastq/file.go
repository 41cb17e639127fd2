package fastq

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/fastqfilter/encoding/bgzf"
	"github.com/klauspost/compress/gzip"
)

// Stdio is the path that denotes stdin for Open and stdout for Create.
const Stdio = "-"

// DefaultCompressionLevel is the compression level used for compressed
// outputs unless the caller asks otherwise.
const DefaultCompressionLevel = 2

const bufSize = 1 << 20

// Format is the on-disk encoding of a FASTQ output.
type Format int

const (
	// Plain is uncompressed FASTQ text.
	Plain Format = iota
	// Gzip is a single gzip stream.
	Gzip
	// BGZF is block gzip, readable by any gzip reader and seekable through
	// an index.
	BGZF
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case Plain:
		return "plain"
	case Gzip:
		return "gzip"
	case BGZF:
		return "bgzf"
	}
	return "unknown"
}

// FormatForPath picks an output format from the path extension. Compression
// formats that can be read but not written (.bz2, .zst, .xz) are rejected.
func FormatForPath(path string) (Format, error) {
	if path == Stdio {
		return Plain, nil
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gz":
		return Gzip, nil
	case ".bgz", ".bgzf":
		return BGZF, nil
	case ".bz2", ".zst", ".xz":
		return Plain, errors.E(errors.NotSupported, "unsupported output compression", ext, path)
	}
	return Plain, nil
}

// File is a FASTQ input opened with Open. Compressed inputs (gzip, bgzf,
// bzip2, zstd) are detected from their leading bytes and decompressed on the
// fly.
type File struct {
	path string
	in   file.File
	r    io.ReadCloser
	sc   *Scanner
}

// Open opens path for reading FASTQ records. Path "-" reads stdin.
func Open(ctx context.Context, path string) (*File, error) {
	f := &File{path: path}
	var raw io.Reader
	if path == Stdio {
		raw = os.Stdin
	} else {
		in, err := file.Open(ctx, path)
		if err != nil {
			return nil, errors.E(err, "open", path)
		}
		f.in = in
		raw = in.Reader(ctx)
	}
	f.r, _ = compress.NewReader(bufio.NewReaderSize(raw, bufSize))
	f.sc = NewScanner(f.r)
	return f, nil
}

// Name returns the path the file was opened with.
func (f *File) Name() string { return f.path }

// Scanner returns the record scanner over the decompressed stream. The same
// scanner is returned on every call; the stream cannot be restarted.
func (f *File) Scanner() *Scanner { return f.sc }

// Close releases the decompressor and the underlying file.
func (f *File) Close(ctx context.Context) error {
	var err errors.Once
	if e := f.r.Close(); e != nil {
		err.Set(errors.E(e, "close", f.path))
	}
	if f.in != nil {
		if e := f.in.Close(ctx); e != nil {
			err.Set(errors.E(e, "close", f.path))
		}
	}
	return err.Err()
}

// OutFile is a FASTQ output created with Create.
type OutFile struct {
	path   string
	format Format
	out    file.File
	zw     io.WriteCloser
	buf    *bufio.Writer
	w      *Writer
}

// Create creates path for writing FASTQ records. The format is chosen by
// FormatForPath; level applies to the compressed formats. Path "-" writes
// uncompressed records to stdout.
func Create(ctx context.Context, path string, level int) (*OutFile, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f := &OutFile{path: path, format: format}
	var raw io.Writer
	if path == Stdio {
		raw = os.Stdout
	} else {
		if f.out, err = file.Create(ctx, path); err != nil {
			return nil, errors.E(err, "create", path)
		}
		raw = f.out.Writer(ctx)
	}
	switch format {
	case Gzip:
		f.zw, err = gzip.NewWriterLevel(raw, level)
	case BGZF:
		f.zw, err = bgzf.NewWriter(raw, level)
	}
	if err != nil {
		if f.out != nil {
			_ = f.out.Close(ctx)
		}
		return nil, errors.E(errors.Invalid, err, fmt.Sprintf("compression level %d:", level), path)
	}
	if f.zw != nil {
		raw = f.zw
	}
	f.buf = bufio.NewWriterSize(raw, bufSize)
	f.w = NewWriter(f.buf)
	return f, nil
}

// Name returns the path the file was created with.
func (f *OutFile) Name() string { return f.path }

// Format returns the encoding of the output.
func (f *OutFile) Format() Format { return f.format }

// Write appends r to the output.
func (f *OutFile) Write(r *Read) error {
	if err := f.w.Write(r); err != nil {
		return errors.E(err, "write", f.path)
	}
	return nil
}

// N returns the number of reads written so far.
func (f *OutFile) N() int64 { return f.w.N() }

// Close flushes buffered data, finishes the compressed stream, and closes the
// underlying file. The output is complete only if Close returns nil.
func (f *OutFile) Close(ctx context.Context) error {
	var err errors.Once
	if e := f.buf.Flush(); e != nil {
		err.Set(errors.E(e, "flush", f.path))
	}
	if f.zw != nil {
		if e := f.zw.Close(); e != nil {
			err.Set(errors.E(e, "close", f.path))
		}
	}
	if f.out != nil {
		if e := f.out.Close(ctx); e != nil {
			err.Set(errors.E(e, "close", f.path))
		}
	}
	return err.Err()
}
