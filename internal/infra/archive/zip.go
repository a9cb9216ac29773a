// Package archive builds the zip bundle of extracted frames.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
)

type ZipBuilder struct {
	level int
}

func NewZipBuilder() *ZipBuilder {
	// klauspost level 9 degrades badly on long byte runs; 8 is its effective maximum.
	return &ZipBuilder{level: 8}
}

// BuildArchive writes every regular file directly under sourceDir into a zip at outputPath.
// Entries carry no directory prefix and are stored in lexical order.
func (z *ZipBuilder) BuildArchive(ctx context.Context, sourceDir, outputPath string) (err error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("read source dir: %w", err)
	}

	zipFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create zip file: %w", err)
	}
	defer func() {
		if cerr := zipFile.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close zip file: %w", cerr)
		}
	}()

	zipWriter := zip.NewWriter(zipFile)
	zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, z.level)
	})

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			_ = zipWriter.Close()
			return ctx.Err()
		default:
		}

		if !entry.Type().IsRegular() {
			continue
		}
		fp := filepath.Join(sourceDir, entry.Name())
		if err := z.addEntry(zipWriter, fp, entry); err != nil {
			_ = zipWriter.Close()
			return fmt.Errorf("add %s to zip: %w", fp, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

func (z *ZipBuilder) addEntry(zw *zip.Writer, path string, entry fs.DirEntry) error {
	info, err := entry.Info()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = entry.Name()
	header.Method = zip.Deflate

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
