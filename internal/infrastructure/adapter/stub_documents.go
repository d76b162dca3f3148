package adapter

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/internal/infrastructure/adapter/objectstore"
)

// MemoryDocumentHost keeps uploads in memory. It is wired when no object
// store is configured, so uploaded URLs only resolve within the process.
type MemoryDocumentHost struct {
	base string

	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryDocumentHost creates a MemoryDocumentHost whose URLs start with base.
func NewMemoryDocumentHost(base string) *MemoryDocumentHost {
	if base == "" {
		base = "memory://documents"
	}
	return &MemoryDocumentHost{base: base, docs: make(map[string][]byte)}
}

func (h *MemoryDocumentHost) Upload(ctx context.Context, doc port.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(doc.Body)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", doc.Name, err)
	}
	key := objectstore.ObjectKey(doc.Folder, doc.Name)

	h.mu.Lock()
	h.docs[key] = data
	h.mu.Unlock()
	return objectstore.PublicURL(h.base, key), nil
}

// Content returns the bytes stored under folder/name.
func (h *MemoryDocumentHost) Content(folder, name string) ([]byte, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data, ok := h.docs[objectstore.ObjectKey(folder, name)]
	return data, ok
}
