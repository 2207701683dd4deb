package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/google/gopacket/tcpassembly"
	"github.com/rawbytedev/fixscan/pkg/framer"
)

// PcapSource reassembles the TCP streams of a pcap capture and frames each
// stream on its own. Messages come out in the order their last segment was
// reassembled.
type PcapSource struct {
	R io.Reader

	fn  func(origin string, data []byte) error
	err error
}

func (s *PcapSource) Each(ctx context.Context, fn func(origin string, data []byte) error) error {
	r, err := pcapgo.NewReader(s.R)
	if err != nil {
		return fmt.Errorf("ingest: pcap header: %w", err)
	}
	s.fn, s.err = fn, nil

	src := gopacket.NewPacketSource(r, r.LinkType())
	src.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	assembler := tcpassembly.NewAssembler(tcpassembly.NewStreamPool(s))

	for s.err == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkt, err := src.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("ingest: pcap: %w", err)
		}
		nl := pkt.NetworkLayer()
		tcp, ok := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP)
		if nl == nil || !ok {
			continue
		}
		assembler.AssembleWithTimestamp(nl.NetworkFlow(), tcp, pkt.Metadata().Timestamp)
	}
	if s.err == nil {
		assembler.FlushAll()
	}
	return s.err
}

// New implements tcpassembly.StreamFactory.
func (s *PcapSource) New(netFlow, tcpFlow gopacket.Flow) tcpassembly.Stream {
	return &tcpStream{
		src:    s,
		origin: fmt.Sprintf("%s:%s->%s:%s", netFlow.Src(), tcpFlow.Src(), netFlow.Dst(), tcpFlow.Dst()),
		split:  framer.ScanMessages,
	}
}

// tcpStream buffers one direction of a connection until whole messages are
// available. tcpassembly calls it from the goroutine driving the assembler.
type tcpStream struct {
	src    *PcapSource
	origin string
	split  func([]byte, bool) (int, []byte, error)
	buf    []byte
}

func (t *tcpStream) Reassembled(rs []tcpassembly.Reassembly) {
	for _, r := range rs {
		if r.Skip != 0 {
			// a gap: whatever was buffered can never complete
			t.buf = t.buf[:0]
		}
		t.buf = append(t.buf, r.Bytes...)
	}
	t.drain(false)
}

func (t *tcpStream) ReassemblyComplete() {
	t.drain(true)
	t.buf = nil
}

func (t *tcpStream) drain(atEOF bool) {
	data := t.buf
	for t.src.err == nil {
		adv, tok, err := t.split(data, atEOF)
		if err != nil {
			t.src.err = err
			return
		}
		if adv == 0 && tok == nil {
			break
		}
		if tok != nil {
			t.src.err = t.src.fn(t.origin, bytes.Clone(tok))
		}
		data = data[adv:]
	}
	t.buf = append(t.buf[:0], data...)
}
