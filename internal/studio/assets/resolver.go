package assets

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"invite-studio/internal/studio/models"
)

var ErrAssetRead = errors.New("asset read failed")

const Dir = "assets"

// BlobSource reads the bytes behind an upload handle.
type BlobSource interface {
	ReadBlob(ctx context.Context, upload models.PendingUpload) ([]byte, error)
}

// File is one staged binary destined for the export archive.
type File struct {
	Path string
	Data []byte
}

type namespace struct {
	prefix     string
	defaultExt string
}

var (
	mediaNamespace = namespace{prefix: "media", defaultExt: "bin"}
	musicNamespace = namespace{prefix: "music", defaultExt: "mp3"}
)

// Resolver assigns bundle paths to uploads. The same upload always maps to
// the same path; the numeric suffix is shared between media and music and
// counts up in encounter order.
type Resolver struct {
	blobs   BlobSource
	paths   map[string]string
	files   []File
	counter int
}

func NewResolver(blobs BlobSource) *Resolver {
	return &Resolver{
		blobs: blobs,
		paths: make(map[string]string),
	}
}

// Media resolves a page background source.
func (r *Resolver) Media(ctx context.Context, src models.Source) (models.Source, error) {
	return r.resolve(ctx, src, mediaNamespace)
}

// Music resolves the background music source.
func (r *Resolver) Music(ctx context.Context, src models.Source) (models.Source, error) {
	return r.resolve(ctx, src, musicNamespace)
}

// Files returns the staged binaries in the order they were first seen.
func (r *Resolver) Files() []File {
	return r.files
}

func (r *Resolver) resolve(ctx context.Context, src models.Source, ns namespace) (models.Source, error) {
	upload, ok := models.Pending(src)
	if !ok {
		if src == nil {
			return models.Resolved{}, nil
		}
		return src, nil
	}

	if p, ok := r.paths[upload.ID]; ok {
		return models.Resolved{URL: p}, nil
	}

	data, err := r.blobs.ReadBlob(ctx, upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetRead, upload.Filename, err)
	}

	name := fmt.Sprintf("%s_%d.%s", ns.prefix, r.counter, extension(upload.Filename, ns.defaultExt))
	r.counter++

	p := path.Join(Dir, name)
	r.paths[upload.ID] = p
	r.files = append(r.files, File{Path: p, Data: data})
	return models.Resolved{URL: p}, nil
}

// extension returns the text after the last dot of filename, or def.
func extension(filename, def string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return def
	}
	ext := filename[i+1:]
	if strings.ContainsAny(ext, `/\`) {
		return def
	}
	return strings.ToLower(ext)
}
