package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oscmix/spatializer/pkg/core"
)

const (
	jsonExt = ".json"
	gzipExt = ".json.gz"
)

// LayoutFile is the on-disk JSON structure of one layout.
type LayoutFile struct {
	Version int `json:"version"`
	core.Layout
}

const fileVersion = 1

// path returns the file a layout is written to.
func (b *Backend) path(name string) string {
	ext := jsonExt
	if b.cfg.CompressOutput {
		ext = gzipExt
	}
	return filepath.Join(b.cfg.OutputDir, name+ext)
}

// export writes l to its file, replacing the file written with the other
// compression setting if one exists.
func (b *Backend) export(l core.Layout) error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := b.path(l.Name)
	data := LayoutFile{Version: fileVersion, Layout: l}
	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, data)
	} else {
		err = writeJSON(outputPath, data)
	}
	if err != nil {
		return err
	}

	stale := filepath.Join(b.cfg.OutputDir, l.Name+gzipExt)
	if b.cfg.CompressOutput {
		stale = filepath.Join(b.cfg.OutputDir, l.Name+jsonExt)
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale layout file: %w", err)
	}
	return nil
}

// remove deletes both possible files of a layout.
func (b *Backend) remove(name string) error {
	for _, ext := range []string{jsonExt, gzipExt} {
		err := os.Remove(filepath.Join(b.cfg.OutputDir, name+ext))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove layout file: %w", err)
		}
	}
	return nil
}

// importDir reads every layout file in the output directory. Unreadable
// files fail the import.
func (b *Backend) importDir() ([]core.Layout, error) {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	entries, err := os.ReadDir(b.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var layouts []core.Layout
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, jsonExt) || strings.HasSuffix(name, gzipExt)) {
			continue
		}
		l, err := readLayoutFile(filepath.Join(b.cfg.OutputDir, name))
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	return layouts, nil
}

func readLayoutFile(path string) (core.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Layout{}, fmt.Errorf("failed to open layout file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, gzipExt) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return core.Layout{}, fmt.Errorf("failed to read gzip layout %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var data LayoutFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return core.Layout{}, fmt.Errorf("failed to decode layout %s: %w", path, err)
	}
	if data.Name == "" {
		return core.Layout{}, fmt.Errorf("layout %s has no name", path)
	}
	return data.Layout, nil
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return f.Close()
}

func writeGzipJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush gzip: %w", err)
	}
	return f.Close()
}
