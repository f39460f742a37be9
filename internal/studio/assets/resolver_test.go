package assets

import (
	"context"
	"errors"
	"testing"

	"invite-studio/internal/studio/models"
)

type memBlobs struct {
	data  map[string][]byte
	reads int
}

func (m *memBlobs) ReadBlob(_ context.Context, u models.PendingUpload) ([]byte, error) {
	m.reads++
	b, ok := m.data[u.ID]
	if !ok {
		return nil, errors.New("no such blob")
	}
	return b, nil
}

func TestResolverSharesPathsPerUpload(t *testing.T) {
	blobs := &memBlobs{data: map[string][]byte{
		"a": []byte("png"),
		"b": []byte("mp4"),
		"m": []byte("ogg"),
	}}
	r := NewResolver(blobs)
	ctx := context.Background()

	first, err := r.Media(ctx, models.PendingUpload{ID: "a", Filename: "Photo.PNG"})
	if err != nil {
		t.Fatal(err)
	}
	second, _ := r.Media(ctx, models.PendingUpload{ID: "a", Filename: "Photo.PNG"})
	video, _ := r.Media(ctx, models.PendingUpload{ID: "b", Filename: "clip"})
	music, _ := r.Music(ctx, models.PendingUpload{ID: "m", Filename: "song"})

	want := map[string]string{
		"first":  "assets/media_0.png",
		"second": "assets/media_0.png",
		"video":  "assets/media_1.bin",
		"music":  "assets/music_2.mp3",
	}
	got := map[string]string{
		"first":  models.SourceURL(first),
		"second": models.SourceURL(second),
		"video":  models.SourceURL(video),
		"music":  models.SourceURL(music),
	}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("%s = %q, want %q", k, got[k], w)
		}
	}

	if blobs.reads != 3 {
		t.Errorf("reads = %d, want 3", blobs.reads)
	}
	if files := r.Files(); len(files) != 3 || string(files[2].Data) != "ogg" {
		t.Errorf("files = %+v", files)
	}
}

func TestResolverPassesResolvedThrough(t *testing.T) {
	r := NewResolver(&memBlobs{})
	src, err := r.Media(context.Background(), models.Resolved{URL: "https://cdn/x.jpg"})
	if err != nil || models.SourceURL(src) != "https://cdn/x.jpg" {
		t.Fatalf("src = %#v, err = %v", src, err)
	}
	if len(r.Files()) != 0 {
		t.Error("resolved source was staged")
	}
}

func TestResolverReadFailure(t *testing.T) {
	r := NewResolver(&memBlobs{data: map[string][]byte{}})
	_, err := r.Music(context.Background(), models.PendingUpload{ID: "gone", Filename: "a.mp3"})
	if !errors.Is(err, ErrAssetRead) {
		t.Fatalf("err = %v", err)
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"a.JPG":       "jpg",
		"noext":       "def",
		"trailing.":   "def",
		"dir.v2/file": "def",
		"x.tar.gz":    "gz",
	}
	for in, want := range cases {
		if got := extension(in, "def"); got != want {
			t.Errorf("extension(%q) = %q, want %q", in, got, want)
		}
	}
}
