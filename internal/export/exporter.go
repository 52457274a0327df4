package export

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"fpstab/internal/cache"
	"fpstab/internal/storage"
)

// zstdMagic starts every zstd frame
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Compressed reports whether path names a zstd archive.
func Compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// Export snapshots every result row and its provenance, sorted by input. A
// cache without a database yields an empty archive.
func Export(ctx context.Context, src *cache.SQLiteStore) (*Archive, error) {
	a := &Archive{Version: ArchiveVersion, ExportedAt: time.Now().UTC(), Results: []Entry{}}

	_, err := src.View(ctx, func(repo *storage.ResultRepository) error {
		rows, err := repo.List(ctx, 0)
		if err != nil {
			return err
		}
		for _, row := range rows {
			e := Entry{CmdIn: row.CmdIn, CmdOut: row.CmdOut, ErrIn: row.ErrIn, ErrOut: row.ErrOut}
			dbg, err := repo.DebugInfo(ctx, row.ID)
			if err != nil {
				return err
			}
			for _, d := range dbg {
				e.Debug = append(e.Debug, d.Info)
			}
			a.Results = append(a.Results, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	sort.Slice(a.Results, func(i, j int) bool { return a.Results[i].CmdIn < a.Results[j].CmdIn })
	return a, nil
}

// Import hands every entry to dst. Existing rows win and entries with
// unknown metrics are skipped, so importing the same archive twice is
// harmless for results; provenance is appended each time.
func Import(ctx context.Context, dst cache.Store, a *Archive, logger *slog.Logger) ImportStats {
	var stats ImportStats
	for _, e := range a.Results {
		r := e.Result()
		if r.Unknown() || e.CmdIn == "" {
			logger.Warn("Skipping archive entry", "cmdin", e.CmdIn)
			stats.Skipped++
			continue
		}
		dst.Insert(ctx, r)
		stats.Results++
		for _, d := range e.Debug {
			dst.RecordDebugInfo(ctx, d, e.CmdIn)
			stats.DebugRecords++
		}
	}
	return stats
}

// Write encodes a as YAML, zstd-compressed when compress is set.
func Write(w io.Writer, a *Archive, compress bool) error {
	if !compress {
		return encode(w, a)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := encode(zw, a); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// Read decodes an archive, detecting zstd compression from the frame magic.
func Read(r io.Reader) (*Archive, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	var a Archive
	if err := yaml.NewDecoder(src).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	if a.Version != ArchiveVersion {
		return nil, fmt.Errorf("unsupported archive version %d", a.Version)
	}
	return &a, nil
}

// WriteFile writes a to path, compressing when path ends in .zst.
func WriteFile(path string, a *Archive) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, a, Compressed(path)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads an archive written by WriteFile.
func ReadFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func encode(w io.Writer, a *Archive) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	return enc.Close()
}
