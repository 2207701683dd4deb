package ingest

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture writes one client->server TCP connection carrying segments.
func capture(t *testing.T, segments ...[]byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))

	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	write := func(tcp *layers.TCP, payload []byte) {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolTCP,
			SrcIP:    net.IP{10, 0, 0, 1},
			DstIP:    net.IP{10, 0, 0, 2},
		}
		tcp.SrcPort, tcp.DstPort, tcp.Window = 5001, 9876, 65535
		require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

		sb := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		require.NoError(t, gopacket.SerializeLayers(sb, opts, eth, ip, tcp, gopacket.Payload(payload)))
		ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: len(sb.Bytes()), Length: len(sb.Bytes())}
		require.NoError(t, w.WritePacket(ci, sb.Bytes()))
		ts = ts.Add(time.Millisecond)
	}

	seq := uint32(1000)
	write(&layers.TCP{Seq: seq, SYN: true}, nil)
	seq++
	for _, s := range segments {
		write(&layers.TCP{Seq: seq, ACK: true, PSH: true}, s)
		seq += uint32(len(s))
	}
	write(&layers.TCP{Seq: seq, ACK: true, FIN: true}, nil)
	return &buf
}

func TestPcapSourceReassembles(t *testing.T) {
	a, b := heartbeat(1), heartbeat(2)
	half := len(b) / 2
	// b straddles two segments
	first := append(append([]byte{}, a...), b[:half]...)
	buf := capture(t, first, b[half:])

	src, err := NewSource(FormatPcap, "", buf)
	require.NoError(t, err)
	var c collected
	require.NoError(t, src.Each(context.Background(), c.add))

	require.Equal(t, []string{string(a), string(b)}, c.msgs)
	assert.Contains(t, c.origins[0], "10.0.0.1")
	assert.Contains(t, c.origins[0], "10.0.0.2")
}

func TestPcapSourceFlushesTailOnClose(t *testing.T) {
	a := heartbeat(1)
	tail := []byte("8=FIX.4.4\x0135=0\x01")
	buf := capture(t, a, tail)

	var c collected
	require.NoError(t, (&PcapSource{R: buf}).Each(context.Background(), c.add))
	assert.Equal(t, []string{string(a), string(tail)}, c.msgs)
}

func TestPcapSourceCallbackError(t *testing.T) {
	buf := capture(t, heartbeat(1), heartbeat(2))
	boom := errors.New("boom")
	calls := 0
	err := (&PcapSource{R: buf}).Each(context.Background(), func(string, []byte) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPcapSourceBadHeader(t *testing.T) {
	err := (&PcapSource{R: bytes.NewReader([]byte("definitely not a pcap"))}).
		Each(context.Background(), func(string, []byte) error { return nil })
	assert.Error(t, err)
}
