package workflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shelfmark/internal/queue"
	"shelfmark/internal/services"
	"shelfmark/internal/services/prowlarr"
	"shelfmark/internal/textutil"
)

// Downloader finds and fetches releases for queue items.
type Downloader interface {
	SearchRelease(ctx context.Context, item *queue.Item) (prowlarr.Release, error)
	FetchRelease(ctx context.Context, item *queue.Item, release prowlarr.Release, progress ProgressFunc) (string, error)
}

// ProwlarrDownloader fetches releases found through Prowlarr over HTTP and
// organizes the result into the library tree.
type ProwlarrDownloader struct {
	Client      prowlarr.Searcher
	DownloadDir string
	LibraryDir  string
	HTTPClient  *http.Client
}

var _ Downloader = (*ProwlarrDownloader)(nil)

// NewProwlarrDownloader constructs a downloader over the given client.
func NewProwlarrDownloader(client prowlarr.Searcher, downloadDir, libraryDir string) *ProwlarrDownloader {
	return &ProwlarrDownloader{
		Client:      client,
		DownloadDir: downloadDir,
		LibraryDir:  libraryDir,
		HTTPClient:  &http.Client{Timeout: 30 * time.Minute},
	}
}

// SearchRelease queries Prowlarr and picks the best-seeded release with a
// usable download URL.
func (d *ProwlarrDownloader) SearchRelease(ctx context.Context, item *queue.Item) (prowlarr.Release, error) {
	query := item.Title
	if item.Author != "" {
		query = item.Title + " " + item.Author
	}
	releases, err := d.Client.Search(ctx, query, item.ContentType)
	if err != nil {
		return prowlarr.Release{}, services.Wrap(services.ErrTransient, "search", "prowlarr", "", err)
	}

	candidates := releases[:0:0]
	for _, release := range releases {
		if release.DownloadURL != "" {
			candidates = append(candidates, release)
		}
	}
	if len(candidates) == 0 {
		return prowlarr.Release{}, services.Wrap(services.ErrNotFound, "search", "prowlarr",
			fmt.Sprintf("no usable releases for %q", item.Title), nil)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Seeders > candidates[j].Seeders
	})
	return candidates[0], nil
}

// FetchRelease downloads the release file and moves it into the library.
func (d *ProwlarrDownloader) FetchRelease(ctx context.Context, item *queue.Item, release prowlarr.Release, progress ProgressFunc) (string, error) {
	if err := d.Client.Grab(ctx, release); err != nil {
		return "", services.Wrap(services.ErrTransient, "grab", "prowlarr", "", err)
	}

	tempPath, err := d.fetchToDownloadDir(ctx, item, release, progress)
	if err != nil {
		return "", err
	}

	finalPath, err := d.organize(item, tempPath)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "organize", "library", "", err)
	}
	return finalPath, nil
}

func (d *ProwlarrDownloader) fetchToDownloadDir(ctx context.Context, item *queue.Item, release prowlarr.Release, progress ProgressFunc) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, release.DownloadURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "download", "request", release.DownloadURL, err)
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "download", "transfer", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "download", "transfer",
			fmt.Sprintf("release server returned %d", resp.StatusCode), nil)
	}

	if err := os.MkdirAll(d.DownloadDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "download", "mkdir", d.DownloadDir, err)
	}
	tempPath := filepath.Join(d.DownloadDir, fmt.Sprintf("shelfmark-%d%s", item.ID, releaseExt(release)))
	out, err := os.Create(tempPath)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "download", "create", tempPath, err)
	}

	written, copyErr := copyWithProgress(out, resp.Body, resp.ContentLength, progress)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(tempPath)
		return "", services.Wrap(services.ErrTransient, "download", "transfer", "", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tempPath)
		return "", services.Wrap(services.ErrTransient, "download", "close", "", closeErr)
	}
	if written == 0 {
		_ = os.Remove(tempPath)
		return "", services.Wrap(services.ErrTransient, "download", "transfer", "empty response body", nil)
	}
	return tempPath, nil
}

// organize moves the fetched file into LibraryDir/Author/Title.ext.
func (d *ProwlarrDownloader) organize(item *queue.Item, sourcePath string) (string, error) {
	targetDir := d.LibraryDir
	if author := textutil.SanitizeFileName(item.Author); author != "" {
		targetDir = filepath.Join(targetDir, author)
	}
	name := textutil.SanitizeFileName(item.Title)
	if name == "" {
		name = filepath.Base(sourcePath)
	}
	targetPath := filepath.Join(targetDir, name+filepath.Ext(sourcePath))

	// Do not overwrite an existing library file; add a counter instead.
	finalPath := targetPath
	counter := 1
	for {
		if _, err := os.Stat(finalPath); os.IsNotExist(err) {
			break
		}
		finalPath = filepath.Join(targetDir, fmt.Sprintf("%s (%d)%s", name, counter, filepath.Ext(sourcePath)))
		counter++
	}

	if err := moveFile(sourcePath, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

func releaseExt(release prowlarr.Release) string {
	if ext := filepath.Ext(strings.TrimSpace(release.Title)); len(ext) > 1 && len(ext) <= 6 {
		return strings.ToLower(ext)
	}
	return ".epub"
}

func copyWithProgress(dst io.Writer, src io.Reader, total int64, progress ProgressFunc) (int64, error) {
	var written int64
	buf := make([]byte, 128*1024)
	lastReport := time.Now()
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return written, writeErr
			}
			written += int64(n)
			if progress != nil && total > 0 && time.Since(lastReport) >= time.Second {
				percent := float64(written) / float64(total) * 100
				progress(percent, fmt.Sprintf("Downloading release (%.0f%%)", percent))
				lastReport = time.Now()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
