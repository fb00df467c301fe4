package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// manifestName is the discovery file listing every available snapshot.
const manifestName = "manifest.json"

// manifest is the on-disk shape of the discovery file.
type manifest struct {
	All []string `json:"all"`
}

// Source supplies the manifest and individual snapshot files.
type Source interface {
	// Manifest returns every known snapshot filename.
	Manifest(ctx context.Context) ([]string, error)
	// Snapshot fetches and decodes one snapshot file.
	Snapshot(ctx context.Context, filename string) ([]RawEntry, error)
}

// DirSource reads the manifest and snapshots from a local directory. This is
// the deployment where the scraper drops files next to the server.
type DirSource struct {
	dir string
	log zerolog.Logger
}

// NewDirSource creates a directory-backed source.
func NewDirSource(dir string, log zerolog.Logger) *DirSource {
	return &DirSource{
		dir: dir,
		log: log.With().Str("component", "dir_source").Logger(),
	}
}

// Manifest implements Source.
func (s *DirSource) Manifest(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	return m.All, nil
}

// Snapshot implements Source.
func (s *DirSource) Snapshot(_ context.Context, filename string) ([]RawEntry, error) {
	// The manifest lists bare filenames; refuse anything trying to walk out
	// of the snapshot directory.
	if filepath.Base(filename) != filename {
		return nil, fmt.Errorf("invalid snapshot filename %q", filename)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", filename, err)
	}

	var entries []RawEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", filename, err)
	}

	return entries, nil
}

// HTTPSource fetches the manifest and snapshots from a remote base URL.
// Every request carries a fresh cache-busting query parameter so stale
// intermediary caches never serve yesterday's prices.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	now     func() time.Time
}

// NewHTTPSource creates an HTTP-backed source.
func NewHTTPSource(baseURL string, log zerolog.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "http_source").Logger(),
		now:     time.Now,
	}
}

// Manifest implements Source.
func (s *HTTPSource) Manifest(ctx context.Context) ([]string, error) {
	data, err := s.fetch(ctx, manifestName)
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	return m.All, nil
}

// Snapshot implements Source.
func (s *HTTPSource) Snapshot(ctx context.Context, filename string) ([]RawEntry, error) {
	data, err := s.fetch(ctx, filename)
	if err != nil {
		return nil, err
	}

	var entries []RawEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", filename, err)
	}

	return entries, nil
}

func (s *HTTPSource) fetch(ctx context.Context, name string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s?v=%s",
		s.baseURL, url.PathEscape(name),
		strconv.FormatInt(s.now().UnixMilli(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", name, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, name)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return body, nil
}
