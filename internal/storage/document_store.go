package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no artifact exists under an id or locator.
	ErrNotFound = errors.New("artifact not found")
	// ErrStorage wraps backend failures while persisting or reading artifacts.
	ErrStorage = errors.New("artifact storage failure")
)

const (
	// UploadsPath is the URL prefix under which artifacts are downloadable.
	UploadsPath = "/uploads/"
	// PreviewPath is the URL prefix under which artifacts are rendered inline.
	PreviewPath = "/preview/"

	fallbackName = "document.pdf"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	dotRuns         = regexp.MustCompile(`\.{2,}`)
)

// DocumentStore owns invoice artifacts. Callers hold only the artifact id it returns.
type DocumentStore interface {
	// Save persists data under a new unique id derived from the current time and suggestedName.
	Save(ctx context.Context, data []byte, suggestedName, contentType string) (string, error)
	// Read returns the full artifact content.
	Read(ctx context.Context, id string) ([]byte, error)
	// Open streams an artifact; the caller must close the reader.
	Open(ctx context.Context, id string) (io.ReadCloser, ObjectInfo, error)
	// Exists reports whether an artifact is stored under id.
	Exists(ctx context.Context, id string) (bool, error)
	// Delete removes an artifact. Missing artifacts are not an error.
	Delete(ctx context.Context, id string) error
	// ResolveURL returns the download locator for id.
	ResolveURL(id string) string
	// PreviewURL returns the inline preview locator for id.
	PreviewURL(id string) string
	// ArtifactID extracts the artifact id from a locator returned by ResolveURL or PreviewURL.
	ArtifactID(locator string) (string, error)
}

// Option configures a documentStore.
type Option func(*documentStore)

// WithClock overrides the time source used for artifact naming.
func WithClock(now func() time.Time) Option {
	return func(s *documentStore) { s.now = now }
}

type documentStore struct {
	backend Storage
	baseURL string
	now     func() time.Time
}

// NewDocumentStore builds a DocumentStore over backend. baseURL is the externally
// reachable origin (e.g. https://api.example.com) prefixed to every locator.
func NewDocumentStore(backend Storage, baseURL string, opts ...Option) DocumentStore {
	s := &documentStore{
		backend: backend,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SanitizeName reduces a client-supplied filename to a safe single path segment.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	// Backends reject keys containing "..".
	name = dotRuns.ReplaceAllString(name, ".")
	name = strings.Trim(name, "._")
	if name == "" {
		return fallbackName
	}
	return name
}

func (s *documentStore) Save(ctx context.Context, data []byte, suggestedName, contentType string) (string, error) {
	id := strconv.FormatInt(s.now().UnixNano(), 10) + "_" + SanitizeName(suggestedName)
	_, err := s.backend.Put(ctx, id, bytes.NewReader(data), PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": suggestedName,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: save %s: %v", ErrStorage, id, err)
	}
	return id, nil
}

func (s *documentStore) Read(ctx context.Context, id string) ([]byte, error) {
	rc, _, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, id, err)
	}
	return data, nil
}

func (s *documentStore) Open(ctx context.Context, id string) (io.ReadCloser, ObjectInfo, error) {
	rc, info, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, ObjectInfo{}, s.mapErr("open", id, err)
	}
	return rc, info, nil
}

func (s *documentStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.backend.Stat(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrObjectNotFound), errors.Is(err, ErrInvalidKey):
		return false, nil
	default:
		return false, fmt.Errorf("%w: stat %s: %v", ErrStorage, id, err)
	}
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return s.mapErr("delete", id, err)
	}
	return nil
}

func (s *documentStore) ResolveURL(id string) string {
	return s.baseURL + UploadsPath + url.PathEscape(id)
}

func (s *documentStore) PreviewURL(id string) string {
	return s.baseURL + PreviewPath + url.PathEscape(id)
}

func (s *documentStore) ArtifactID(locator string) (string, error) {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Path != "" {
		p = u.Path
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return "", fmt.Errorf("%w: locator %q", ErrNotFound, locator)
	}
	id := path.Base(p)
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	if id == "" || id == "." || id == "/" || SanitizeName(id) != id {
		return "", fmt.Errorf("%w: locator %q", ErrNotFound, locator)
	}
	return id, nil
}

func (s *documentStore) mapErr(op, id string, err error) error {
	if errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrInvalidKey) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s %s: %v", ErrStorage, op, id, err)
}
