package patch

import (
	"path/filepath"
	"strings"
	"time"

	"ilpatch/internal/cache"
)

// runKey hashes everything that decides a run's outcome: input paths and
// contents, the rule and the options that shape the output.
func runKey(ilPaths, resources []string, opts Options) (cache.Digest, error) {
	if opts.Cache == nil {
		return cache.Digest{}, nil
	}
	parts := []string{
		opts.Rule.Fingerprint(),
		opts.Normalize.Keyword,
		opts.OutputSuffix,
		strings.Join(opts.ResourceExt, ","),
	}
	for _, group := range [][]string{ilPaths, resources} {
		for _, p := range group {
			d, err := cache.SumFile(p)
			if err != nil {
				return cache.Digest{}, err
			}
			abs, err := filepath.Abs(p)
			if err != nil {
				abs = p
			}
			parts = append(parts, abs, d.String())
		}
	}
	return cache.Key(parts...), nil
}

func cachedResult(key cache.Digest, opts Options) (*Result, bool) {
	if opts.Cache == nil || opts.DryRun {
		return nil, false
	}
	e, ok, err := opts.Cache.Get(key)
	if err != nil || !ok || !e.Fresh() {
		return nil, false
	}
	return &Result{
		Counts:  countsFromMap(e.Counts),
		Written: e.Written,
		Cached:  true,
	}, true
}

// remember stores the outcome. Resources patched in place change the
// inputs, so the key is recomputed from the state after the commit.
func remember(key cache.Digest, ilPaths, resources []string, res *Result, opts Options) error {
	if opts.Cache == nil {
		return nil
	}
	e := &cache.Entry{
		RuleDigest: opts.Rule.Fingerprint(),
		Counts:     res.Counts.Map(),
		Total:      res.Total(),
		Written:    res.Written,
		Created:    time.Now(),
	}
	if res.Written {
		e.Outputs = make(map[string]cache.Digest, len(res.Files))
		for _, f := range res.Files {
			if f.Kind != KindLoad && f.content == nil {
				continue
			}
			d, err := cache.SumFile(f.Output)
			if err != nil {
				return err
			}
			e.Outputs[f.Output] = d
		}
		var err error
		if key, err = runKey(ilPaths, resources, opts); err != nil {
			return err
		}
	}
	if len(ilPaths) > 0 {
		d, err := cache.SumFile(ilPaths[0])
		if err != nil {
			return err
		}
		e.InputDigest = d
	}
	return opts.Cache.Put(key, e)
}
