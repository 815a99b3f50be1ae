// Package storage uploads quote attachments to public object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// DefaultBaseURL is the Vercel Blob API root.
const DefaultBaseURL = "https://blob.vercel-storage.com"

// Store saves one file and returns its public URL. An empty URL with a nil
// error means the file was not stored and only its name is reported.
type Store interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// disabled is used when no storage token is configured.
type disabled struct{}

func (disabled) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", nil
}

// BlobStore talks to a Vercel-Blob-compatible HTTP API.
type BlobStore struct {
	token      string
	baseURL    string
	prefix     string
	httpClient *http.Client
}

type Option func(*BlobStore)

func WithBaseURL(u string) Option {
	return func(s *BlobStore) { s.baseURL = strings.TrimRight(u, "/") }
}

func WithPrefix(prefix string) Option {
	return func(s *BlobStore) { s.prefix = strings.Trim(prefix, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(s *BlobStore) { s.httpClient = hc }
}

// New returns a blob store, or a store that keeps nothing when token is
// empty.
func New(token string, opts ...Option) Store {
	if strings.TrimSpace(token) == "" {
		return disabled{}
	}

	s := &BlobStore{
		token:      token,
		baseURL:    DefaultBaseURL,
		prefix:     "quotes",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type putResponse struct {
	URL         string `json:"url"`
	Pathname    string `json:"pathname"`
	ContentType string `json:"contentType"`
}

// Put stores the file under <prefix>/<content digest>/<name>. The digest
// keeps two uploads of the same name from overwriting each other.
func (s *BlobStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	pathname := ObjectPath(s.prefix, name, data)
	endpoint := s.baseURL + "/" + pathname

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("x-api-version", "7")
	req.Header.Set("x-content-type", contentType)
	req.Header.Set("x-add-random-suffix", "0")
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload %s failed (HTTP %d): %s", name, resp.StatusCode, string(body))
	}

	var out putResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload %s: response has no url", name)
	}
	return out.URL, nil
}

// ObjectPath builds the escaped object path for a file.
func ObjectPath(prefix, name string, data []byte) string {
	sum := blake3.Sum256(data)
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	return path.Join(prefix, hex.EncodeToString(sum[:8]), url.PathEscape(base))
}
