// Package ingest feeds framed messages from files, pipes and packet captures
// through a pool of parsers and writes the decoded records.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rawbytedev/fixscan"
	"github.com/rawbytedev/fixscan/pkg/framer"
)

// Input formats.
const (
	FormatRaw  = "raw"
	FormatPipe = "pipe"
	FormatPcap = "pcap"
)

// MaxMessageSize bounds a single framed message in a stream.
const MaxMessageSize = 1 << 20

var ErrUnknownFormat = errors.New("ingest: unknown input format")

// Source emits framed messages in input order. fn owns data.
type Source interface {
	Each(ctx context.Context, fn func(origin string, data []byte) error) error
}

// NewSource returns the Source for format reading r. name labels the
// messages it emits.
func NewSource(format, name string, r io.Reader) (Source, error) {
	switch format {
	case FormatRaw:
		return &StreamSource{Name: name, R: r, Delim: fixscan.SOH}, nil
	case FormatPipe:
		return &StreamSource{Name: name, R: r, Delim: '|'}, nil
	case FormatPcap:
		return &PcapSource{R: r}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Open opens path for reading. "-" is stdin and a ".zst" suffix is
// decompressed on the fly.
func Open(path string) (io.ReadCloser, error) {
	var f io.ReadCloser
	if path == "-" {
		f = io.NopCloser(os.Stdin)
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		f = file
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ingest: zstd %s: %w", path, err)
	}
	return &zstdFile{Decoder: dec, f: f}, nil
}

// Create opens path for writing. "-" is stdout and a ".zst" suffix is
// compressed; closing the result flushes the compressor and the file.
func Create(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ingest: zstd %s: %w", path, err)
	}
	return &zstdOut{Encoder: enc, f: f}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type zstdOut struct {
	*zstd.Encoder
	f io.Closer
}

func (z *zstdOut) Close() error {
	if err := z.Encoder.Close(); err != nil {
		z.f.Close()
		return err
	}
	return z.f.Close()
}

type zstdFile struct {
	*zstd.Decoder
	f io.Closer
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// StreamSource frames a byte stream of messages whose fields end with Delim.
// Anything other than SOH is rewritten to SOH before the message is handed on.
type StreamSource struct {
	Name  string
	R     io.Reader
	Delim byte
}

func (s *StreamSource) Each(ctx context.Context, fn func(origin string, data []byte) error) error {
	sc := bufio.NewScanner(s.R)
	sc.Buffer(make([]byte, 0, 64*1024), MaxMessageSize)
	sc.Split(framer.SplitFunc(s.Delim))
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := bytes.Clone(sc.Bytes())
		if s.Delim != fixscan.SOH {
			toSOH(msg, s.Delim)
		}
		if err := fn(s.Name, msg); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("ingest: %s: %w", s.Name, err)
	}
	return nil
}

func toSOH(msg []byte, delim byte) {
	for i, c := range msg {
		if c == delim {
			msg[i] = fixscan.SOH
		}
	}
}
