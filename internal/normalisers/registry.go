package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps file extensions to normalisers. When several
// normalisers claim the same extension the highest priority wins.
type Registry struct {
	mu          sync.RWMutex
	byExtension map[string]driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		byExtension: make(map[string]driven.Normaliser),
	}
}

// Register adds a normaliser for each of its supported extensions.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range n.SupportedExtensions() {
		ext = strings.ToLower(ext)
		if existing, ok := r.byExtension[ext]; ok && existing.Priority() >= n.Priority() {
			continue
		}
		r.byExtension[ext] = n
	}
}

// Normalise dispatches the file to the normaliser registered for its
// extension.
func (r *Registry) Normalise(ctx context.Context, file *domain.UploadFile) (*driven.NormaliseResult, error) {
	if file == nil || file.Name == "" {
		return nil, fmt.Errorf("%w: missing file name", domain.ErrInvalidInput)
	}

	ext := extensionOf(file.Name)
	r.mu.RLock()
	normaliser, ok := r.byExtension[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: .%s", domain.ErrUnsupportedFormat, ext)
	}

	return normaliser.Normalise(ctx, file)
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// extensionOf returns the lowercase extension without the leading dot.
func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
