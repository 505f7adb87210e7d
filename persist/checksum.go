package persist

import (
	"hash"
	"hash/crc32"
	"io"
)

// CRC32 (IEEE) is used for corruption detection only; it is not a tamper
// seal.
var crcTable = crc32.MakeTable(crc32.IEEE)

type checksumWriter struct {
	w    io.Writer
	hash hash.Hash32
}

func newChecksumWriter(w io.Writer) *checksumWriter {
	return &checksumWriter{w: w, hash: crc32.New(crcTable)}
}

func (cw *checksumWriter) Write(p []byte) (int, error) {
	if _, err := cw.hash.Write(p); err != nil {
		return 0, err
	}
	return cw.w.Write(p)
}

func (cw *checksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}

type checksumReader struct {
	r    io.Reader
	hash hash.Hash32
}

func newChecksumReader(r io.Reader) *checksumReader {
	return &checksumReader{r: r, hash: crc32.New(crcTable)}
}

func (cr *checksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}

func (cr *checksumReader) Sum() uint32 {
	return cr.hash.Sum32()
}
