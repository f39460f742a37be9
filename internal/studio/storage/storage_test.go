package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"invite-studio/internal/studio/models"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func tinyMP4() []byte {
	box := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm'}
	return append(box, make([]byte, 64)...)
}

func TestProjectRoundTrip(t *testing.T) {
	s := NewFileStorage(t.TempDir())

	names, err := s.ListProjects("u1")
	if err != nil || len(names) != 0 {
		t.Fatalf("empty list = %v, %v", names, err)
	}

	p := models.NewProject("Wedding")
	if err := s.SaveProject("u1", "wedding", p); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveProject("u1", "birthday", p); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadProject("u1", "wedding")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Wedding" || len(got.Pages) != 3 {
		t.Errorf("loaded %+v", got)
	}

	names, _ = s.ListProjects("u1")
	if len(names) != 2 || names[0] != "birthday" || names[1] != "wedding" {
		t.Errorf("names = %v", names)
	}

	if _, err := s.LoadProject("u2", "wedding"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other user err = %v", err)
	}
}

func TestProjectNames(t *testing.T) {
	s := NewFileStorage(t.TempDir())
	for _, name := range []string{"", "../etc", "a/b", ".hidden", "x y"} {
		if err := s.SaveProject("u1", name, models.NewProject("x")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("SaveProject(%q) err = %v", name, err)
		}
	}
}

func TestUploads(t *testing.T) {
	s := NewFileStorage(t.TempDir())

	img, err := s.SaveUpload("u1", "photo.png", tinyPNG(t))
	if err != nil {
		t.Fatal(err)
	}
	if img.MIME != "image/png" || !img.IsImage() {
		t.Errorf("image upload = %+v", img)
	}

	vid, err := s.SaveUpload("u1", "../../clip.mp4", tinyMP4())
	if err != nil {
		t.Fatal(err)
	}
	if !vid.IsVideo() || vid.Filename != "clip.mp4" {
		t.Errorf("video upload = %+v", vid)
	}

	meta, err := s.GetUpload("u1", img.ID)
	if err != nil || meta != img {
		t.Errorf("meta = %+v, %v", meta, err)
	}

	data, err := s.Blobs("u1").ReadBlob(context.Background(), img.Handle())
	if err != nil || !bytes.Equal(data, tinyPNG(t)) {
		t.Errorf("blob read = %d bytes, %v", len(data), err)
	}

	if _, err := s.Blobs("u2").ReadBlob(context.Background(), img.Handle()); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user read err = %v", err)
	}
	if _, err := s.ReadUpload("u1", "../u2/x"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("traversal err = %v", err)
	}
}

func TestUploadRejectsNonMedia(t *testing.T) {
	s := NewFileStorage(t.TempDir())
	_, err := s.SaveUpload("u1", "notes.txt", []byte("just some text"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v", err)
	}
}
