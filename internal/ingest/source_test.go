package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPlainAndZstd(t *testing.T) {
	dir := t.TempDir()
	payload := []byte(pipeText(heartbeat(1)) + "\n" + pipeText(heartbeat(2)) + "\n")

	plain := filepath.Join(dir, "session.log")
	require.NoError(t, os.WriteFile(plain, payload, 0o644))

	compressed := filepath.Join(dir, "session.log.zst")
	f, err := os.Create(compressed)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	for _, path := range []string{plain, compressed} {
		rc, err := Open(path)
		require.NoError(t, err, path)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, payload, got, path)
	}
}

func TestCreateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	payload := []byte(pipeText(heartbeat(9)) + "\n")
	for _, name := range []string{"out.log", "out.log.zst"} {
		path := filepath.Join(dir, name)
		w, err := Create(path)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		r, err := Open(path)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, payload, got, name)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "out.log.zst"))
	require.NoError(t, err)
	assert.NotEqual(t, payload, raw)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.zst"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenCorruptZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd at all"), 0o644))
	rc, err := Open(path)
	if err == nil {
		// the frame header is checked lazily on first read
		_, err = io.ReadAll(rc)
		rc.Close()
	}
	assert.Error(t, err)
}

func TestStreamSourcePipeLog(t *testing.T) {
	a, b := heartbeat(1), heartbeat(2)
	input := "session start\n" +
		"12:00:00.001 IN  " + pipeText(a) + "\n" +
		"12:00:00.002 OUT " + pipeText(b) + "\n"

	src, err := NewSource(FormatPipe, "session.log", strings.NewReader(input))
	require.NoError(t, err)

	var c collected
	require.NoError(t, src.Each(context.Background(), c.add))
	assert.Equal(t, []string{string(a), string(b)}, c.msgs)
	assert.Equal(t, []string{"session.log", "session.log"}, c.origins)
}

func TestStreamSourceRaw(t *testing.T) {
	a, b := heartbeat(1), heartbeat(2)
	src, err := NewSource(FormatRaw, "-", strings.NewReader(string(a)+string(b)))
	require.NoError(t, err)

	var c collected
	require.NoError(t, src.Each(context.Background(), c.add))
	assert.Equal(t, []string{string(a), string(b)}, c.msgs)
}

func TestStreamSourceStops(t *testing.T) {
	input := pipeText(heartbeat(1)) + pipeText(heartbeat(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &StreamSource{Name: "x", R: strings.NewReader(input), Delim: '|'}
	calls := 0
	err := src.Each(ctx, func(string, []byte) error { calls++; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)

	boom := errors.New("boom")
	src = &StreamSource{Name: "x", R: strings.NewReader(input), Delim: '|'}
	err = src.Each(context.Background(), func(string, []byte) error { calls++; return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestStreamSourceTooLong(t *testing.T) {
	input := "8=FIX.4.4|58=" + strings.Repeat("x", MaxMessageSize+1)
	src := &StreamSource{Name: "big", R: strings.NewReader(input), Delim: '|'}
	err := src.Each(context.Background(), func(string, []byte) error { return nil })
	assert.Error(t, err)
}

func TestNewSourceUnknownFormat(t *testing.T) {
	_, err := NewSource("csv", "x", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
