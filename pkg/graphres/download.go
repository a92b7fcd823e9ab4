package graphres

import (
	"context"
	"fmt"
	"time"

	"github.com/DrSkyle/netmapper/pkg/storage"
)

const filenameLayout = "2006-01-02-15-04"

// FilenamePrefix starts every saved map name.
const FilenamePrefix = "network-map-"

// Filename returns the save name for a map downloaded at t,
// e.g. network-map-2026-10-18-09-30.png.
func Filename(t time.Time) string {
	return FilenamePrefix + t.Format(filenameLayout) + ".png"
}

// Download is a graph payload detached from the displayed resource, ready to
// be written somewhere.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

func newDownload(now time.Time, contentType string, data []byte) *Download {
	return &Download{
		Filename:    Filename(now),
		ContentType: contentType,
		Data:        data,
	}
}

// Save writes the payload to store under its filename and returns where it
// landed.
func (d *Download) Save(ctx context.Context, store storage.BlobStore) (string, error) {
	if err := store.Put(ctx, d.Filename, d.Data); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", d.Filename, err)
	}
	return store.Location(d.Filename), nil
}
