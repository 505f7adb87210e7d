package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/slotmap"
)

const (
	// MagicNumber identifies slotmap snapshot streams (ASCII: "SLM1").
	MagicNumber = 0x534C4D31
	// Version is the current snapshot format version.
	Version = 0x00010000

	flagMultiMap   = 1 << 0
	flagCompressed = 1 << 1

	// MaxPayloadLen caps the payload size a reader will allocate for. A
	// corrupt header must not be able to demand an arbitrarily large buffer.
	MaxPayloadLen = 1 << 30
)

var (
	// ErrInvalidMagic is returned when the stream does not start with a
	// snapshot header.
	ErrInvalidMagic = errors.New("persist: invalid magic number")
	// ErrInvalidVersion is returned for snapshots written by an
	// incompatible format version.
	ErrInvalidVersion = errors.New("persist: unsupported version")
	// ErrChecksum is returned when the stream fails corruption detection.
	ErrChecksum = errors.New("persist: checksum mismatch")
	// ErrPayloadTooLarge is returned when the header declares a payload
	// larger than MaxPayloadLen.
	ErrPayloadTooLarge = errors.New("persist: payload length exceeds limit")
	// ErrWrongKind is returned when a Map snapshot is loaded as a MultiMap
	// or vice versa.
	ErrWrongKind = errors.New("persist: snapshot holds a different container kind")
	// ErrUnknownCodec is returned when the snapshot names a codec this
	// build does not provide.
	ErrUnknownCodec = errors.New("persist: unknown codec")
)

// Option configures snapshot writing and reading.
type Option func(*options)

type options struct {
	codec    Codec
	compress bool
	logger   *slotmap.Logger
}

// WithCodec overrides the payload codec. Nil restores the default.
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c == nil {
			c = Default
		}
		o.codec = c
	}
}

// WithCompression toggles zstd compression of the pair payload. On by
// default; worth disabling only for tiny snapshots or pre-compressed data.
func WithCompression(enabled bool) Option {
	return func(o *options) {
		o.compress = enabled
	}
}

// WithLogger sets the logger for save/load progress. Defaults to no output.
func WithLogger(l *slotmap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func resolveOptions(opts []Option) options {
	o := options{
		codec:    Default,
		compress: true,
		logger:   slotmap.NoopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SaveMap writes a snapshot of m to w.
func SaveMap[K comparable, V any](w io.Writer, m *slotmap.Map[K, V], opts ...Option) error {
	return save(w, m.Array(), false, resolveOptions(opts))
}

// SaveMultiMap writes a snapshot of m to w.
func SaveMultiMap[K comparable, V any](w io.Writer, m *slotmap.MultiMap[K, V], opts ...Option) error {
	return save(w, m.Array(), true, resolveOptions(opts))
}

// LoadMap reads a Map snapshot from r into a fresh map with the default key
// strategy. Insertion order matches the snapshot's iteration order.
func LoadMap[K comparable, V any](r io.Reader, opts ...Option) (*slotmap.Map[K, V], error) {
	pairs, multi, err := load[K, V](r, resolveOptions(opts))
	if err != nil {
		return nil, err
	}
	if multi {
		return nil, ErrWrongKind
	}
	m := slotmap.NewMap[K, V](slotmap.WithCapacity[K](len(pairs)))
	for _, p := range pairs {
		m.Add(p.Key, p.Value)
	}
	return m, nil
}

// LoadMultiMap reads a MultiMap snapshot from r into a fresh multi-map with
// the default key strategy.
func LoadMultiMap[K comparable, V any](r io.Reader, opts ...Option) (*slotmap.MultiMap[K, V], error) {
	pairs, multi, err := load[K, V](r, resolveOptions(opts))
	if err != nil {
		return nil, err
	}
	if !multi {
		return nil, ErrWrongKind
	}
	m := slotmap.NewMultiMap[K, V](slotmap.WithCapacity[K](len(pairs)))
	for _, p := range pairs {
		m.Add(p.Key, p.Value)
	}
	return m, nil
}

func save[K comparable, V any](w io.Writer, pairs []slotmap.Pair[K, V], multi bool, o options) error {
	payload, err := o.codec.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("persist: encode pairs: %w", err)
	}

	flags := uint32(0)
	if multi {
		flags |= flagMultiMap
	}
	if o.compress {
		flags |= flagCompressed
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("persist: init compressor: %w", err)
		}
		payload = enc.EncodeAll(payload, nil)
		if err := enc.Close(); err != nil {
			return fmt.Errorf("persist: close compressor: %w", err)
		}
	}

	cw := newChecksumWriter(w)
	if err := writeHeader(cw, flags, o.codec.Name(), uint32(len(pairs)), uint64(len(payload))); err != nil {
		return err
	}
	if _, err := cw.Write(payload); err != nil {
		return fmt.Errorf("persist: write payload: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, cw.Sum()); err != nil {
		return fmt.Errorf("persist: write checksum: %w", err)
	}

	o.logger.Debug("snapshot saved", "pairs", len(pairs), "payload_bytes", len(payload), "compressed", o.compress)
	return nil
}

func load[K comparable, V any](r io.Reader, o options) ([]slotmap.Pair[K, V], bool, error) {
	cr := newChecksumReader(r)

	flags, codecName, count, payloadLen, err := readHeader(cr)
	if err != nil {
		return nil, false, err
	}
	if payloadLen > MaxPayloadLen {
		return nil, false, fmt.Errorf("%w: header declares %d bytes", ErrPayloadTooLarge, payloadLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(cr, payload); err != nil {
		return nil, false, fmt.Errorf("persist: read payload: %w", err)
	}

	sum := cr.Sum()
	var stored uint32
	if err := binary.Read(r, binary.LittleEndian, &stored); err != nil {
		return nil, false, fmt.Errorf("persist: read checksum: %w", err)
	}
	if stored != sum {
		return nil, false, fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksum, stored, sum)
	}

	if flags&flagCompressed != 0 {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, false, fmt.Errorf("persist: init decompressor: %w", err)
		}
		payload, err = dec.DecodeAll(payload, nil)
		dec.Close()
		if err != nil {
			return nil, false, fmt.Errorf("persist: decompress payload: %w", err)
		}
	}

	codec, ok := ByName(codecName)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}
	if o.codec.Name() != codecName {
		// The stream is self-describing; prefer the codec it names.
		o.logger.Debug("snapshot codec differs from configured codec", "snapshot", codecName, "configured", o.codec.Name())
	}

	// count is also untrusted; each pair costs at least one payload byte,
	// so the payload length bounds the preallocation.
	if int(count) > len(payload) {
		count = uint32(len(payload))
	}

	pairs := make([]slotmap.Pair[K, V], 0, count)
	if err := codec.Unmarshal(payload, &pairs); err != nil {
		return nil, false, fmt.Errorf("persist: decode pairs: %w", err)
	}

	o.logger.Debug("snapshot loaded", "pairs", len(pairs))
	return pairs, flags&flagMultiMap != 0, nil
}

func writeHeader(w io.Writer, flags uint32, codecName string, count uint32, payloadLen uint64) error {
	for _, v := range []any{
		uint32(MagicNumber),
		uint32(Version),
		flags,
		uint8(len(codecName)),
	} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("persist: write header: %w", err)
		}
	}
	if _, err := w.Write([]byte(codecName)); err != nil {
		return fmt.Errorf("persist: write header: %w", err)
	}
	for _, v := range []any{count, payloadLen} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("persist: write header: %w", err)
		}
	}
	return nil
}

func readHeader(r io.Reader) (flags uint32, codecName string, count uint32, payloadLen uint64, err error) {
	var magic, version uint32
	if err = binary.Read(r, binary.LittleEndian, &magic); err != nil {
		err = fmt.Errorf("persist: read header: %w", err)
		return
	}
	if magic != MagicNumber {
		err = fmt.Errorf("%w: %08x", ErrInvalidMagic, magic)
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &version); err != nil {
		err = fmt.Errorf("persist: read header: %w", err)
		return
	}
	if version != Version {
		err = fmt.Errorf("%w: %08x", ErrInvalidVersion, version)
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &flags); err != nil {
		err = fmt.Errorf("persist: read header: %w", err)
		return
	}
	var nameLen uint8
	if err = binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		err = fmt.Errorf("persist: read header: %w", err)
		return
	}
	name := make([]byte, nameLen)
	if _, err = io.ReadFull(r, name); err != nil {
		err = fmt.Errorf("persist: read header: %w", err)
		return
	}
	codecName = string(name)
	if err = binary.Read(r, binary.LittleEndian, &count); err != nil {
		err = fmt.Errorf("persist: read header: %w", err)
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
		err = fmt.Errorf("persist: read header: %w", err)
		return
	}
	return
}
