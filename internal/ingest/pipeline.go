package ingest

import (
	"context"
	"runtime"
	"sync"

	"github.com/rawbytedev/fixscan"
	"github.com/sirupsen/logrus"
)

type Field struct {
	Tag   int
	Value string
}

// Record is the outcome of decoding one message.
type Record struct {
	Seq    int
	Origin string
	Data   []byte
	// Valid is the validation verdict; false whenever Err is set.
	Valid  bool
	Err    error
	Fields []Field
}

type Stats struct {
	Messages int
	Valid    int
	Invalid  int
	Errors   int
}

func (s *Stats) add(r Record) {
	s.Messages++
	switch {
	case r.Err != nil:
		s.Errors++
	case r.Valid:
		s.Valid++
	default:
		s.Invalid++
	}
}

// Merge adds o's counters to s.
func (s *Stats) Merge(o Stats) {
	s.Messages += o.Messages
	s.Valid += o.Valid
	s.Invalid += o.Invalid
	s.Errors += o.Errors
}

// Failed reports whether any message was rejected or could not be decoded.
func (s Stats) Failed() bool { return s.Invalid > 0 || s.Errors > 0 }

// Pipeline decodes messages on Workers goroutines, each with its own Parser
// built from Options. Validators in Options are shared by every worker and
// must be safe for concurrent use.
type Pipeline struct {
	Workers int
	Options fixscan.Options
	Log     logrus.FieldLogger
}

type job struct {
	seq    int
	origin string
	data   []byte
}

// Run decodes everything src emits and hands the records to sink in input
// order. It stops at the first source or sink error.
func (p *Pipeline) Run(ctx context.Context, src Source, sink func(Record) error) (Stats, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job, workers*4)
	results := make(chan Record, workers*4)

	var srcErr error
	go func() {
		defer close(jobs)
		seq := 0
		srcErr = src.Each(ctx, func(origin string, data []byte) error {
			select {
			case jobs <- job{seq: seq, origin: origin, data: data}:
				seq++
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parser := fixscan.NewParser(p.Options)
			for j := range jobs {
				results <- p.decode(parser, j)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		stats   Stats
		sinkErr error
		next    int
		pending = make(map[int]Record)
	)
	// results is always drained so workers never block on a dead collector
	for r := range results {
		if sinkErr != nil {
			continue
		}
		pending[r.Seq] = r
		for {
			rec, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			stats.add(rec)
			if sinkErr = sink(rec); sinkErr != nil {
				cancel()
				break
			}
		}
	}
	if sinkErr != nil {
		return stats, sinkErr
	}
	return stats, srcErr
}

func (p *Pipeline) decode(parser *fixscan.Parser, j job) Record {
	rec := Record{Seq: j.seq, Origin: j.origin, Data: j.data}
	rec.Valid, rec.Err = parser.Parse(j.data)
	if rec.Err != nil {
		if p.Log != nil {
			p.Log.WithFields(logrus.Fields{"seq": j.seq, "origin": j.origin}).WithError(rec.Err).Debug("decode failed")
		}
		return rec
	}
	rec.Fields = make([]Field, 0, parser.Len())
	parser.Range(func(tag, offset, length int) bool {
		rec.Fields = append(rec.Fields, Field{Tag: tag, Value: string(j.data[offset : offset+length])})
		return true
	})
	return rec
}
