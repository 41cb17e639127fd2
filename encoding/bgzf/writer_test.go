package bgzf

import (
	"bytes"
	"io/ioutil"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	for _, length := range []int{0, 1, 100, 65279, 65280, 65281, 500000} {
		input := make([]byte, length)
		r := rand.New(rand.NewSource(int64(length)))
		for i := range input {
			input[i] = "ACGT"[r.Intn(4)]
		}

		var buf bytes.Buffer
		w, err := NewWriter(&buf, 2)
		require.NoError(t, err)
		n, err := w.Write(input)
		require.NoError(t, err)
		assert.Equal(t, length, n)
		require.NoError(t, w.Close())

		out := buf.Bytes()
		require.True(t, bytes.HasSuffix(out, terminator), "length %d", length)
		if length > 0 {
			// Every block starts with a gzip header carrying the BC subfield.
			assert.Equal(t, bgzfExtraPrefix, out[extraOffset:extraOffset+4])
		}

		gr, err := gzip.NewReader(&buf)
		require.NoError(t, err)
		actual, err := ioutil.ReadAll(gr)
		require.NoError(t, err)
		assert.Equal(t, length, len(actual))
		assert.True(t, bytes.Equal(input, actual), "length %d", length)
	}
}

func TestBlockSize(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1)
	require.NoError(t, err)
	// Two full blocks plus one byte, written in small pieces.
	piece := bytes.Repeat([]byte("A"), 1000)
	total := 2*DefaultUncompressedBlockSize + 1
	for written := 0; written < total; {
		n := len(piece)
		if total-written < n {
			n = total - written
		}
		_, err := w.Write(piece[:n])
		require.NoError(t, err)
		written += n
	}
	require.NoError(t, w.Close())

	// Walk the blocks with BSIZE; expect three data blocks and the terminator.
	out := buf.Bytes()
	var nBlock int
	for len(out) > 0 {
		bsize := int(out[extraOffset+4]) | int(out[extraOffset+5])<<8
		out = out[bsize+1:]
		nBlock++
	}
	assert.Equal(t, 4, nBlock)
}

func TestInvalidLevel(t *testing.T) {
	_, err := NewWriter(ioutil.Discard, 13)
	assert.Error(t, err)
}
