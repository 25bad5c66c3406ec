package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/okian/clipscore/internal/adapters/mq/queue"
	"github.com/okian/clipscore/internal/adapters/mq/worker"
	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/internal/domain/schema"
	"github.com/okian/clipscore/internal/domain/scoring"
)

// maxLineBytes bounds a single JSON Lines record.
const maxLineBytes = 16 << 20

// ErrNoInput is returned when the input globs match no files.
var ErrNoInput = errors.New("no input files matched")

// item is one document awaiting scoring. err is set when the document could
// not be read.
type item struct {
	source string
	raw    []byte
	err    error
}

// itemResult is the outcome for the item at the same index.
type itemResult struct {
	source string
	result model.Result
	err    error
}

// collectInputs expands globs into items. Files ending in .jsonl hold one
// document per line; other files hold one document each. With no globs the
// items are JSON Lines read from in.
func collectInputs(globs []string, in io.Reader) ([]item, error) {
	if len(globs) == 0 {
		return splitLines("stdin", in)
	}

	var paths []string
	for _, pattern := range globs {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "glob %q", pattern)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)
	if len(paths) == 0 {
		return nil, errors.Wrapf(ErrNoInput, "%s", strings.Join(globs, ", "))
	}

	var items []item
	for _, p := range paths {
		if strings.HasSuffix(p, ".jsonl") {
			f, err := os.Open(p)
			if err != nil {
				items = append(items, item{source: p, err: errors.WithStack(err)})
				continue
			}
			lines, err := splitLines(p, f)
			_ = f.Close()
			if err != nil {
				items = append(items, item{source: p, err: err})
				continue
			}
			items = append(items, lines...)
			continue
		}
		raw, err := os.ReadFile(p)
		items = append(items, item{source: p, raw: raw, err: errors.WithStack(err)})
	}
	return items, nil
}

// splitLines returns one item per non-blank line, sourced as name:line.
func splitLines(name string, r io.Reader) ([]item, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	var items []item
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		items = append(items, item{
			source: fmt.Sprintf("%s:%d", name, line),
			raw:    bytes.Clone(b),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return items, nil
}

// scoreAll validates every item and scores the valid ones on a worker pool.
// Results come back in input order; one bad item never affects the others.
func scoreAll(ctx context.Context, engine *scoring.Engine, items []item, workers int) ([]itemResult, error) {
	results := make([]itemResult, len(items))

	q := queue.NewInMemoryQueue(queue.WithCapacity(max(1, len(items))))
	pool := worker.NewPool(workers, q, engine, worker.SinkFunc(func(_ context.Context, o worker.Outcome) error {
		r := &results[o.Job.Seq]
		r.result, r.err = o.Result, errors.WithStack(o.Err)
		return nil
	}))
	pool.Start(ctx)

	for i, it := range items {
		results[i].source = it.source
		if it.err != nil {
			results[i].err = it.err
			continue
		}
		doc, err := schema.Parse(it.raw)
		if err != nil {
			results[i].err = errors.WithStack(err)
			continue
		}
		job := model.Job{ID: it.source, Seq: i, Document: *doc}
		if err := q.Enqueue(ctx, job); err != nil {
			results[i].err = errors.Wrap(err, "enqueue")
		}
	}

	if err := pool.Shutdown(ctx); err != nil {
		return nil, err
	}
	return results, nil
}
