package search

import (
	"context"

	"shelfmark/internal/services/openlibrary"
	"shelfmark/internal/services/prowlarr"
	"shelfmark/internal/textutil"
)

// ProwlarrSource adapts the Prowlarr client to the Source interface.
type ProwlarrSource struct {
	Client prowlarr.Searcher
}

// Name implements Source.
func (ProwlarrSource) Name() string { return "prowlarr" }

// Search implements Source.
func (p ProwlarrSource) Search(ctx context.Context, query, contentType string) ([]Result, error) {
	releases, err := p.Client.Search(ctx, query, contentType)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(releases))
	for _, release := range releases {
		results = append(results, Result{
			Title:       textutil.NormalizeTitle(release.Title),
			Source:      "prowlarr",
			ContentType: contentType,
			Size:        release.Size,
			Seeders:     release.Seeders,
			GUID:        release.GUID,
		})
	}
	return results, nil
}

// OpenLibrarySource adapts the Open Library client to the Source interface.
// Its results carry no release; they exist so users without download rights
// can find and request books that no indexer currently serves.
type OpenLibrarySource struct {
	Client openlibrary.Searcher
	Limit  int
}

// Name implements Source.
func (OpenLibrarySource) Name() string { return "openlibrary" }

// Search implements Source.
func (o OpenLibrarySource) Search(ctx context.Context, query, contentType string) ([]Result, error) {
	resp, err := o.Client.Search(ctx, query, o.Limit)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		results = append(results, Result{
			Title:       doc.Title,
			Author:      doc.Author(),
			Source:      "openlibrary",
			ContentType: contentType,
			Year:        doc.FirstPublishYear,
		})
	}
	return results, nil
}
