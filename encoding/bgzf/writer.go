// Package bgzf writes the .bgzf (block gzipped) file format.  A .bgzf
// file is a concatenation of complete gzip members, each holding at most
// 64KB of uncompressed data, followed by a 28 byte terminator member with
// an empty payload.  Any gzip reader can decompress it, and a .bgzf FASTQ
// can be indexed for random access (e.g. by samtools fqidx).
//
// For the format details see the SAM/BAM spec:
// https://samtools.github.io/hts-specs/SAMv1.pdf
//
// Example:
//
//	var out bytes.Buffer
//	w, err := NewWriter(&out, 2)
//	n, err := w.Write([]byte("@r1\nACGT\n+\nIIII\n"))
//	err = w.Close()
package bgzf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/grailbio/base/compress/libdeflate"
)

const (
	// DefaultUncompressedBlockSize is the uncompressed payload size of each
	// block, as chosen by both sambamba and biogo.
	DefaultUncompressedBlockSize = 0x0ff00

	// maxCompressedBlockSize is the largest legal compressed block.
	maxCompressedBlockSize = 0x10000

	// extraOffset is the offset of the Extra subfield in the gzip header.
	extraOffset = 12
)

var (
	// bgzfExtra is the gzip Extra subfield: ids 66, 67, length 2, and BSIZE.
	bgzfExtra       = [...]byte{66, 67, 2, 0, 0, 0}
	bgzfExtraPrefix = bgzfExtra[:4]

	terminator = []byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
		0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
)

// Writer compresses data into .bgzf format. It is not threadsafe.
type Writer struct {
	w          io.Writer
	level      int
	pending    bytes.Buffer // uncompressed bytes not yet in a block
	compressed bytes.Buffer
	gz         *libdeflate.Writer
	err        error
}

// NewWriter returns a .bgzf writer with the given deflate level.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	if level < 0 || level > 12 {
		return nil, fmt.Errorf("bgzf: invalid compression level %d", level)
	}
	return &Writer{w: w, level: level}, nil
}

// Write buffers buf and emits every block that becomes full.
func (w *Writer) Write(buf []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	for i := 0; i < len(buf); {
		end := i + DefaultUncompressedBlockSize - w.pending.Len()
		if end > len(buf) {
			end = len(buf)
		}
		w.pending.Write(buf[i:end])
		i = end
		if w.pending.Len() == DefaultUncompressedBlockSize {
			if w.err = w.flushBlock(); w.err != nil {
				return i, w.err
			}
		}
	}
	return len(buf), nil
}

// Close emits the final partial block and the terminator.  It does not close
// the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.pending.Len() > 0 {
		if w.err = w.flushBlock(); w.err != nil {
			return w.err
		}
	}
	_, w.err = w.w.Write(terminator)
	return w.err
}

func (w *Writer) flushBlock() error {
	w.compressed.Reset()
	if w.gz == nil {
		var err error
		if w.gz, err = libdeflate.NewWriterLevel(&w.compressed, w.level); err != nil {
			return err
		}
	} else {
		w.gz.Reset(&w.compressed)
	}
	w.gz.Header.Extra = append([]byte(nil), bgzfExtra[:]...)
	w.gz.Header.OS = 0xff // unknown
	if _, err := w.gz.Write(w.pending.Next(DefaultUncompressedBlockSize)); err != nil {
		return err
	}
	if err := w.gz.Close(); err != nil {
		return err
	}
	b := w.compressed.Bytes()
	if len(b) < extraOffset+len(bgzfExtra) || !bytes.Equal(b[extraOffset:extraOffset+4], bgzfExtraPrefix) {
		return fmt.Errorf("bgzf: malformed gzip header from compressor")
	}
	bsize := len(b) - 1
	if bsize >= maxCompressedBlockSize {
		return fmt.Errorf("bgzf: compressed block is too big: %d >= %d", bsize, maxCompressedBlockSize)
	}
	b[extraOffset+4] = byte(bsize)
	b[extraOffset+5] = byte(bsize >> 8)
	_, err := w.w.Write(b)
	return err
}
