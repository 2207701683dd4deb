package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type fieldView struct {
	Tag   int    `json:"tag" yaml:"tag"`
	Value string `json:"value" yaml:"value"`
}

type recordView struct {
	Seq    int         `json:"seq" yaml:"seq"`
	Origin string      `json:"origin" yaml:"origin"`
	Valid  bool        `json:"valid" yaml:"valid"`
	Error  string      `json:"error,omitempty" yaml:"error,omitempty"`
	Fields []fieldView `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Writer renders records as text lines, JSON lines or YAML documents. When
// tags is non-empty only those fields are written.
type Writer struct {
	format string
	tags   []int
	bw     *bufio.Writer
	json   *json.Encoder
	yaml   *yaml.Encoder
}

func NewWriter(w io.Writer, format string, tags []int) (*Writer, error) {
	out := &Writer{format: format, tags: tags, bw: bufio.NewWriter(w)}
	switch format {
	case OutputText:
	case OutputJSON:
		out.json = json.NewEncoder(out.bw)
	case OutputYAML:
		out.yaml = yaml.NewEncoder(out.bw)
		out.yaml.SetIndent(2)
	default:
		return nil, fmt.Errorf("%w: output %q", ErrUnknownFormat, format)
	}
	return out, nil
}

func (w *Writer) keep(tag int) bool {
	return len(w.tags) == 0 || slices.Contains(w.tags, tag)
}

func (w *Writer) view(r Record) recordView {
	v := recordView{Seq: r.Seq, Origin: r.Origin, Valid: r.Valid}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	for _, f := range r.Fields {
		if w.keep(f.Tag) {
			v.Fields = append(v.Fields, fieldView{Tag: f.Tag, Value: f.Value})
		}
	}
	return v
}

func (w *Writer) Write(r Record) error {
	switch w.format {
	case OutputJSON:
		return w.json.Encode(w.view(r))
	case OutputYAML:
		return w.yaml.Encode(w.view(r))
	}
	return w.writeText(r)
}

// writeText emits "seq origin verdict 8=FIX.4.4|35=D|...".
func (w *Writer) writeText(r Record) error {
	b := w.bw.AvailableBuffer()
	b = strconv.AppendInt(b, int64(r.Seq), 10)
	b = append(b, ' ')
	b = append(b, r.Origin...)
	switch {
	case r.Err != nil:
		b = append(b, " error "...)
		b = strconv.AppendQuote(b, r.Err.Error())
	case r.Valid:
		b = append(b, " valid "...)
	default:
		b = append(b, " invalid "...)
	}
	for _, f := range r.Fields {
		if !w.keep(f.Tag) {
			continue
		}
		b = strconv.AppendInt(b, int64(f.Tag), 10)
		b = append(b, '=')
		b = append(b, f.Value...)
		b = append(b, '|')
	}
	b = append(b, '\n')
	_, err := w.bw.Write(b)
	return err
}

// Close flushes buffered output. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.yaml != nil {
		if err := w.yaml.Close(); err != nil {
			return err
		}
	}
	return w.bw.Flush()
}
