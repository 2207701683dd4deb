package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rawbytedev/fixscan"
	"github.com/rawbytedev/fixscan/internal/ingest"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errVerifyFailed = errors.New("verification failed")

func newDecodeCmd(a *app) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "decode [file...]",
		Short: "Print every decoded message",
		Long: `Decode prints each message with its validation verdict. With no file, or
with "-", it reads stdin. Files ending in .zst are decompressed, and an
--out-file ending in .zst is compressed.`,
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			var dst io.WriteCloser = nopCloser{cmd.OutOrStdout()}
			if outFile != "" {
				f, err := ingest.Create(outFile)
				if err != nil {
					return err
				}
				dst = f
			}
			w, err := ingest.NewWriter(dst, a.cfg.Output.Format, a.cfg.Output.Tags)
			if err != nil {
				dst.Close()
				return err
			}
			_, err = a.run(cmd.Context(), cmd.InOrStdin(), args, w.Write)
			return errors.Join(err, w.Close(), dst.Close())
		}),
	}
	fs := cmd.Flags()
	addDecoderFlags(fs)
	fs.StringP("output", "o", "text", "output format: text, json or yaml")
	fs.IntSlice("tags", nil, "only print these tags")
	fs.StringVar(&outFile, "out-file", "", "write records to this file instead of stdout")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [file...]",
		Short: "Check every message and report failures",
		Long: `Verify lists the messages that fail to decode or validate, prints a
summary and exits non-zero if there were any.`,
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			stats, err := a.run(cmd.Context(), cmd.InOrStdin(), args, func(r ingest.Record) error {
				switch {
				case r.Err != nil:
					_, werr := fmt.Fprintf(out, "%s #%d: %v\n", r.Origin, r.Seq, r.Err)
					return werr
				case !r.Valid:
					_, werr := fmt.Fprintf(out, "%s #%d: rejected by validation\n", r.Origin, r.Seq)
					return werr
				}
				return nil
			})
			fmt.Fprintf(out, "messages=%d valid=%d invalid=%d errors=%d\n",
				stats.Messages, stats.Valid, stats.Invalid, stats.Errors)
			if err != nil {
				return err
			}
			if stats.Failed() {
				return errVerifyFailed
			}
			return nil
		}),
	}
	addDecoderFlags(cmd.Flags())
	return cmd
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (a *app) options() fixscan.Options {
	return fixscan.Options{
		Capacity:          a.cfg.Decoder.Capacity,
		SkipChecksum:      !a.cfg.Decoder.Checksum,
		StrictTermination: a.cfg.Decoder.StrictTermination,
		Logger:            a.log,
	}
}

// run pushes each input through the pipeline. Sequence numbers restart per
// input.
func (a *app) run(ctx context.Context, stdin io.Reader, paths []string, sink func(ingest.Record) error) (ingest.Stats, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	p := &ingest.Pipeline{Workers: a.cfg.Input.Workers, Options: a.options(), Log: a.log}

	var total ingest.Stats
	for _, path := range paths {
		stats, err := a.runOne(ctx, p, stdin, path, sink)
		total.Merge(stats)
		if err != nil {
			return total, fmt.Errorf("%s: %w", path, err)
		}
		a.log.WithFields(logrus.Fields{
			"input":    path,
			"messages": stats.Messages,
			"valid":    stats.Valid,
			"invalid":  stats.Invalid,
			"errors":   stats.Errors,
		}).Info("input processed")
	}
	return total, nil
}

func (a *app) runOne(ctx context.Context, p *ingest.Pipeline, stdin io.Reader, path string, sink func(ingest.Record) error) (ingest.Stats, error) {
	var r io.ReadCloser = io.NopCloser(stdin)
	if path != "-" {
		f, err := ingest.Open(path)
		if err != nil {
			return ingest.Stats{}, err
		}
		r = f
	}
	defer r.Close()

	src, err := ingest.NewSource(a.cfg.Input.Format, path, r)
	if err != nil {
		return ingest.Stats{}, err
	}
	return p.Run(ctx, src, sink)
}
