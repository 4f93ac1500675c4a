package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"shelfmark/internal/logging"
	"shelfmark/internal/policy"
	"shelfmark/internal/textutil"
)

// duplicateThreshold is the cosine similarity above which two results with
// the same content type are treated as the same book.
const duplicateThreshold = 0.85

// Result is one aggregated search hit.
type Result struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Source      string `json:"source"`
	ContentType string `json:"content_type"`
	Year        int    `json:"year,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Seeders     int    `json:"seeders,omitempty"`
	GUID        string `json:"guid,omitempty"`

	// Mode is the access mode the request policy resolves for this
	// result's source and content type.
	Mode policy.Mode `json:"mode"`
}

// Source is a search backend registered with the service.
type Source interface {
	Name() string
	Search(ctx context.Context, query, contentType string) ([]Result, error)
}

// Service fans a query out to all sources and merges the results.
type Service struct {
	sources []Source
	logger  *slog.Logger
}

// NewService builds a search service over the provided sources.
func NewService(logger *slog.Logger, sources ...Source) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		sources: sources,
		logger:  logging.NewComponentLogger(logger, "search"),
	}
}

// Search queries every source concurrently. A failing source is logged and
// skipped so one unreachable backend does not empty the whole result set.
func (s *Service) Search(ctx context.Context, pol *policy.Policy, isAdmin bool, query, contentType string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Result
	)
	for _, source := range s.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			hits, err := src.Search(ctx, query, contentType)
			if err != nil {
				s.logger.Warn("source search failed",
					logging.String(logging.FieldSource, src.Name()),
					logging.Error(err))
				return
			}
			mu.Lock()
			results = append(results, hits...)
			mu.Unlock()
		}(source)
	}
	wg.Wait()

	merged := Deduplicate(results)
	for i := range merged {
		merged[i].Mode = policy.ResolveSourceMode(pol, isAdmin, merged[i].Source, merged[i].ContentType)
	}
	Rank(merged)
	return merged, ctx.Err()
}

// Deduplicate collapses near-identical results. Within a duplicate group the
// entry with the most seeders survives; order of first appearance is kept
// otherwise.
func Deduplicate(results []Result) []Result {
	type entry struct {
		result Result
		print  *textutil.Fingerprint
	}
	var kept []entry

	for _, result := range results {
		print := textutil.NewFingerprint(result.Title + " " + result.Author)
		duplicate := false
		for i := range kept {
			if kept[i].result.ContentType != result.ContentType {
				continue
			}
			if textutil.CosineSimilarity(print, kept[i].print) < duplicateThreshold {
				continue
			}
			duplicate = true
			if result.Seeders > kept[i].result.Seeders {
				kept[i] = entry{result: result, print: print}
			}
			break
		}
		if !duplicate {
			kept = append(kept, entry{result: result, print: print})
		}
	}

	out := make([]Result, len(kept))
	for i := range kept {
		out[i] = kept[i].result
	}
	return out
}

// Rank orders results for display: accessible modes before blocked, more
// seeders first, then title for a stable order.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		ra, rb := policy.Restrictiveness(a.Mode), policy.Restrictiveness(b.Mode)
		if ra != rb {
			return ra < rb
		}
		if a.Seeders != b.Seeders {
			return a.Seeders > b.Seeders
		}
		return a.Title < b.Title
	})
}
