package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrNoValidImages is returned when every source image failed to ingest.
// It is the only way the ingestion stage fails a request.
var ErrNoValidImages = errors.New("no valid images could be ingested")

// dataURIPattern matches inline-encoded images: data:<mime>;base64,<payload>
var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9./+-]+);base64,(.+)$`)

// Ingestor fetches and decodes source images into request-scoped files.
type Ingestor struct {
	client *http.Client
}

func NewIngestor(client *http.Client) *Ingestor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Ingestor{client: client}
}

// Ingest resolves each image reference (data URI or HTTP(S) URL) into a
// local file under wd. References are fetched concurrently; failures are
// per-item — a bad image is logged and skipped. Surviving paths keep the
// original list order regardless of completion order. Only a total loss
// returns an error (ErrNoValidImages).
func (in *Ingestor) Ingest(ctx context.Context, wd *Workdir, images []string) ([]string, error) {
	slots := make([]string, len(images))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range images {
		g.Go(func() error {
			path, err := in.ingestOne(gctx, wd, i, ref)
			if err != nil {
				log.Printf("[Ingest] image %d skipped: %v", i, err)
				return nil // per-item failure, never propagated
			}
			slots[i] = path
			return nil
		})
	}
	// Worker funcs always return nil; Wait only surfaces context errors.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Compact, preserving original order
	paths := make([]string, 0, len(slots))
	for _, p := range slots {
		if p != "" {
			paths = append(paths, p)
		}
	}

	if len(paths) == 0 {
		return nil, ErrNoValidImages
	}

	log.Printf("[Ingest] %d/%d images ingested", len(paths), len(images))
	return paths, nil
}

func (in *Ingestor) ingestOne(ctx context.Context, wd *Workdir, index int, ref string) (string, error) {
	if strings.HasPrefix(ref, "data:") {
		return in.writeInline(wd, index, ref)
	}
	return in.fetchRemote(ctx, wd, index, ref)
}

// writeInline decodes a data URI and writes the bytes directly. A value
// that doesn't match the pattern or decodes to nothing is malformed.
func (in *Ingestor) writeInline(wd *Workdir, index int, ref string) (string, error) {
	m := dataURIPattern.FindStringSubmatch(ref)
	if m == nil {
		return "", fmt.Errorf("malformed inline image")
	}

	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", fmt.Errorf("malformed inline image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("malformed inline image: empty payload")
	}

	path := wd.Path(fmt.Sprintf("image_%d%s", index, extensionForMime(m[1])))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

// fetchRemote downloads an image over HTTP(S).
func (in *Ingestor) fetchRemote(ctx context.Context, wd *Workdir, index int, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}

	resp, err := in.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("fetch failed: empty body")
	}

	path := wd.Path(fmt.Sprintf("image_%d%s", index, extensionForMime(resp.Header.Get("Content-Type"))))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

func extensionForMime(mime string) string {
	switch {
	case strings.Contains(mime, "png"):
		return ".png"
	case strings.Contains(mime, "webp"):
		return ".webp"
	case strings.Contains(mime, "gif"):
		return ".gif"
	default:
		return ".jpg"
	}
}
