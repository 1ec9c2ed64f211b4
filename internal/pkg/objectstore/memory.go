package objectstore

import (
	"context"
	"sync"
)

// MemoryBucket keeps objects in process memory. It backs local development
// without S3 credentials and the test suites.
type MemoryBucket struct {
	name    string
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryBucket(name string) *MemoryBucket {
	return &MemoryBucket{name: name, objects: make(map[string]memoryObject)}
}

func (b *MemoryBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (b *MemoryBucket) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

func (b *MemoryBucket) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *MemoryBucket) PublicURL(key string) string {
	return "/storage/" + b.name + "/" + key
}

// ContentType returns the stored content type of key, or "".
func (b *MemoryBucket) ContentType(key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.objects[key].contentType
}

// Len is the number of stored objects.
func (b *MemoryBucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
