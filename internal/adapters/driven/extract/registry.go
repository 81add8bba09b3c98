package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ContentExtractor = (*Registry)(nil)

// DefaultMaxFileSize is the largest file the registry reads (50 MiB).
const DefaultMaxFileSize int64 = 50 << 20

// Format converts the raw bytes of one file type to plain text.
type Format interface {
	// Name identifies the format in logs and placeholders.
	Name() string

	// Extensions lists the lower-case extensions handled, including the dot.
	Extensions() []string

	// Extract returns the text content of data.
	Extract(data []byte) (string, error)
}

// Registry maps file extensions to formats.
type Registry struct {
	mu          sync.RWMutex
	formats     map[string]Format
	maxFileSize int64
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxFileSize sets the size limit above which files become placeholders.
func WithMaxFileSize(n int64) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxFileSize = n
		}
	}
}

// New creates a registry with the built-in formats.
func New(opts ...Option) *Registry {
	r := NewEmpty(opts...)
	r.Register(PlainText{})
	r.Register(Markdown{})
	r.Register(HTML{})
	r.Register(DOCX{})
	r.Register(Email{})
	return r
}

// NewEmpty creates a registry with no formats.
func NewEmpty(opts ...Option) *Registry {
	r := &Registry{
		formats:     make(map[string]Format),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds f for each of its extensions. Later registrations win.
func (r *Registry) Register(f Format) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range f.Extensions() {
		r.formats[strings.ToLower(ext)] = f
	}
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.formats))
	for ext := range r.formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a format is registered for path's extension.
func (r *Registry) Supports(path string) bool {
	return r.lookup(path) != nil
}

// Extract reads path and converts it with the matching format.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := filepath.Base(path)
	format := r.lookup(path)
	if format == nil {
		return domain.PlaceholderText("unsupported", name), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", name)
	}
	if info.Size() > r.maxFileSize {
		logger.Debug("extract: %s is %d bytes, over the %d byte limit", name, info.Size(), r.maxFileSize)
		return domain.PlaceholderText("too-large", name), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}

	text, err := format.Extract(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", format.Name(), err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.PlaceholderText("empty", name), nil
	}
	return text, nil
}

func (r *Registry) lookup(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.formats[ext]
}
