// Package graphres manages the lifecycle of the network map image held in
// memory: fetch, hand out for display, save on demand, release.
package graphres

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/DrSkyle/netmapper/pkg/discovery"
	"github.com/google/uuid"
)

var (
	// ErrReleased is returned when a released handle is dereferenced.
	ErrReleased = errors.New("graph resource released")
	// ErrClosed is returned once the manager has been torn down.
	ErrClosed = errors.New("graph manager closed")
	// ErrSuperseded is returned by a fetch whose result lost to a newer fetch.
	ErrSuperseded = errors.New("graph fetch superseded")
)

// Resource is a handle to one graph payload. Consumers get read-only access;
// only the Manager releases it.
type Resource struct {
	id          string
	key         string
	createdAt   time.Time
	contentType string
	size        int
	origin      *discovery.Image

	mu       sync.RWMutex
	data     []byte
	released bool
}

func newResource(key string, img *discovery.Image, now time.Time) *Resource {
	return &Resource{
		id:          uuid.NewString(),
		key:         key,
		createdAt:   now,
		contentType: img.ContentType,
		size:        len(img.Data),
		origin:      img,
		data:        img.Data,
	}
}

func (r *Resource) ID() string           { return r.id }
func (r *Resource) Key() string          { return r.key }
func (r *Resource) CreatedAt() time.Time { return r.createdAt }
func (r *Resource) ContentType() string  { return r.contentType }
func (r *Resource) Size() int            { return r.size }

// Bytes returns a copy of the payload.
func (r *Resource) Bytes() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.released {
		return nil, ErrReleased
	}
	return append([]byte(nil), r.data...), nil
}

// Reader streams the payload without copying it. The reader must not be used
// after the resource is released.
func (r *Resource) Reader() (io.Reader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.released {
		return nil, ErrReleased
	}
	return bytes.NewReader(r.data), nil
}

// Released reports whether the handle has been released.
func (r *Resource) Released() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.released
}

// release drops the payload. It reports whether this call did the release.
func (r *Resource) release() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return false
	}
	r.released = true
	r.data = nil
	r.origin = nil
	return true
}
