package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var sample = []Record{
	{Seq: 0, Origin: "a.log", Valid: true, Fields: []Field{{8, "FIX.4.4"}, {35, "0"}, {10, "163"}}},
	{Seq: 1, Origin: "a.log", Valid: false, Fields: []Field{{8, "FIX.4.4"}, {35, "1"}, {10, "000"}}},
	{Seq: 2, Origin: "a.log", Err: errors.New("fixscan: malformed tag")},
}

func render(t *testing.T, format string, tags []int) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, format, tags)
	require.NoError(t, err)
	for _, r := range sample {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	return buf.String()
}

func TestWriterText(t *testing.T) {
	want := "0 a.log valid 8=FIX.4.4|35=0|10=163|\n" +
		"1 a.log invalid 8=FIX.4.4|35=1|10=000|\n" +
		"2 a.log error \"fixscan: malformed tag\"\n"
	assert.Equal(t, want, render(t, OutputText, nil))
}

func TestWriterTextFilter(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(render(t, OutputText, []int{35})), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0 a.log valid 35=0|", lines[0])
}

func TestWriterJSON(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(render(t, OutputJSON, nil)))
	var got []recordView
	for {
		var v recordView
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	require.Len(t, got, 3)
	assert.True(t, got[0].Valid)
	assert.Equal(t, fieldView{Tag: 35, Value: "0"}, got[0].Fields[1])
	assert.Equal(t, "fixscan: malformed tag", got[2].Error)
	assert.Empty(t, got[2].Fields)
}

func TestWriterYAML(t *testing.T) {
	dec := yaml.NewDecoder(strings.NewReader(render(t, OutputYAML, []int{8, 10})))
	var got []recordView
	for {
		var v recordView
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	require.Len(t, got, 3)
	assert.Equal(t, []fieldView{{8, "FIX.4.4"}, {10, "000"}}, got[1].Fields)
	assert.False(t, got[1].Valid)
}

func TestWriterUnknownFormat(t *testing.T) {
	_, err := NewWriter(io.Discard, "xml", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
