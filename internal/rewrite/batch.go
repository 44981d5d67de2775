package rewrite

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"gopreprocess/internal/annotation"
)

// Result is the outcome of rewriting one record of a batch.
type Result struct {
	Record annotation.Record
	OK     bool
}

// RewriteAll applies rw to every record on up to workers goroutines.
// Results occupy the same index as their input, so order is preserved
// regardless of scheduling. workers <= 0 uses GOMAXPROCS.
func RewriteAll(ctx context.Context, recs []annotation.Record, rw Rewriter, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Result, len(recs))
	if len(recs) == 0 {
		return out, nil
	}

	chunk := (len(recs) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(recs); start += chunk {
		end := min(start+chunk, len(recs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				rec, ok := rw.Rewrite(recs[i])
				out[i] = Result{Record: rec, OK: ok}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Converted collects the successful results in order and counts the rest.
func Converted(results []Result) (recs []annotation.Record, unconvertible int) {
	recs = make([]annotation.Record, 0, len(results))
	for _, r := range results {
		if !r.OK {
			unconvertible++
			continue
		}
		recs = append(recs, r.Record)
	}
	return recs, unconvertible
}

// DefaultOrthologProvenance moves RGD-provided annotations to MGI.
func DefaultOrthologProvenance() ReplaceIfFrom {
	return ReplaceIfFrom{Sources: []string{"RGD"}, Target: "MGI"}
}

// DefaultProteinToGeneProvenance credits every reassigned annotation to
// GO_Central.
func DefaultProteinToGeneProvenance() AlwaysReplace {
	return AlwaysReplace{Target: "GO_Central"}
}
