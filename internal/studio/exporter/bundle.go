package exporter

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"path"

	"github.com/klauspost/compress/zip"

	"invite-studio/internal/studio/assets"
	"invite-studio/internal/studio/models"
	"invite-studio/internal/studio/playback"
)

var (
	ErrAssetsFolder = errors.New("could not create assets folder")
	ErrArchive      = errors.New("could not write archive")
)

//go:embed runtime/index.html runtime/style.css runtime/app.js
var runtimeFS embed.FS

var indexTmpl = template.Must(template.ParseFS(runtimeFS, "runtime/index.html"))

// ============================================================
// Export
// ============================================================

// Bundle is a finished export held in memory.
type Bundle struct {
	Archive []byte
	Config  models.Project
	Assets  int
	Report  playback.Report
}

// Export compiles p and packs the static site. Nothing is returned unless
// the whole archive was written.
func Export(ctx context.Context, p models.Project, blobs assets.BlobSource) (*Bundle, error) {
	cfg, files, err := Compile(ctx, p, blobs)
	if err != nil {
		return nil, err
	}

	report := playback.Reachable(cfg)
	for _, id := range report.Unreachable {
		log.Printf("[EXPORT] Page %s is not reachable from the first page", id)
	}
	for _, ref := range report.InvalidLinks {
		log.Printf("[EXPORT] Hotspot %s on page %s points to a deleted page", ref.HotspotID, ref.PageID)
	}

	var buf bytes.Buffer
	if err := WriteZip(&buf, cfg, files); err != nil {
		return nil, err
	}

	return &Bundle{
		Archive: buf.Bytes(),
		Config:  cfg,
		Assets:  len(files),
		Report:  report,
	}, nil
}

// WriteZip writes config.json, the runtime files and every staged asset.
func WriteZip(w io.Writer, cfg models.Project, files []assets.File) error {
	config, err := models.EncodeProject(cfg)
	if err != nil {
		return fmt.Errorf("%w: encode config: %v", ErrArchive, err)
	}

	var index bytes.Buffer
	if err := indexTmpl.Execute(&index, struct{ Title string }{cfg.Name}); err != nil {
		return fmt.Errorf("%w: render index.html: %v", ErrArchive, err)
	}

	entries := []entry{
		{"config.json", config},
		{"index.html", index.Bytes()},
	}
	for _, name := range []string{"style.css", "app.js"} {
		data, err := runtimeFS.ReadFile(path.Join("runtime", name))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrArchive, name, err)
		}
		entries = append(entries, entry{name, data})
	}

	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := writeEntry(zw, e.name, e.data); err != nil {
			return err
		}
	}

	if len(files) > 0 {
		if _, err := zw.Create(assets.Dir + "/"); err != nil {
			return fmt.Errorf("%w: %v", ErrAssetsFolder, err)
		}
	}
	for _, f := range files {
		if err := writeEntry(zw, f.Path, f.Data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrArchive, err)
	}
	return nil
}

type entry struct {
	name string
	data []byte
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArchive, name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArchive, name, err)
	}
	return nil
}
