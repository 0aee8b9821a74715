// Command render turns a single trace file into an HTML report, the way the
// profiling decorator does it at the end of a run: it derives the report name
// from the profiled function and a timestamp, writes the document to the
// output bucket and announces where it went.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"

	"github.com/callprofiler/callprofiler/internal/calltree"
	"github.com/callprofiler/callprofiler/internal/event"
	"github.com/callprofiler/callprofiler/internal/logutil"
	"github.com/callprofiler/callprofiler/internal/report"
	"github.com/callprofiler/callprofiler/internal/summary"
)

func main() {
	logutil.ConfigureLogger()

	tracePath := flag.String("trace", "", "path to the trace file (.json or .json.lz4)")
	out := flag.String("out", ".profile", "output directory or bucket URL for the report")
	flag.Parse()

	if *tracePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	location, err := run(context.Background(), *tracePath, *out, time.Now())
	if err != nil {
		log.Fatal().Err(err).Str("trace", *tracePath).Msg("can't render the report")
	}

	log.Info().Msgf("[callprofiler] report saved to %s", location)
}

// run reads the trace, renders it and writes the report into the output
// bucket. It returns the location the report was saved to.
func run(ctx context.Context, tracePath, out string, now time.Time) (string, error) {
	trace, err := readTrace(tracePath)
	if err != nil {
		return "", fmt.Errorf("can't read the trace: %w", err)
	}
	if err := trace.Validate(); err != nil {
		return "", fmt.Errorf("invalid trace: %w", err)
	}

	tree, err := calltree.Build(trace.Events)
	if err != nil {
		return "", fmt.Errorf("can't build the call tree: %w", err)
	}

	doc, err := report.Render(tree, summary.Summarize(tree), report.Options{
		GeneratedAt: now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("can't render the report: %w", err)
	}

	bucketURL, err := resolveBucketURL(out)
	if err != nil {
		return "", fmt.Errorf("can't resolve the output location: %w", err)
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return "", fmt.Errorf("can't open the output bucket: %w", err)
	}
	defer bucket.Close()

	name := trace.Name + "_" + now.Format("20060102_150405") + ".html"
	if err := bucket.WriteAll(ctx, name, doc, nil); err != nil {
		return "", fmt.Errorf("can't write the report: %w", err)
	}

	return bucketURL + "/" + name, nil
}

func readTrace(path string) (event.Trace, error) {
	var t event.Trace
	f, err := os.Open(path)
	if err != nil {
		return t, err
	}
	defer f.Close()

	if strings.HasSuffix(path, ".lz4") {
		err = json.NewDecoder(lz4.NewReader(f)).Decode(&t)
	} else {
		err = json.NewDecoder(f).Decode(&t)
	}
	return t, err
}

// resolveBucketURL accepts either a bucket URL or a plain directory path. A
// directory is created if needed and turned into a fileblob URL.
func resolveBucketURL(out string) (string, error) {
	if strings.Contains(out, "://") {
		return out, nil
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", err
	}
	return "file://localhost" + filepath.ToSlash(abs), nil
}
