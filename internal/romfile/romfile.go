// Package romfile reads cartridge images from disk, unpacking common
// archive and compression formats by file extension.
package romfile

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/golang/glog"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// ErrEmptyArchive is returned for an archive without a regular file.
var ErrEmptyArchive = errors.New("archive contains no ROM")

// maxROMSize bounds how much is read from a compressed stream.
const maxROMSize = 8 << 20

// Load reads filename and returns the ROM image it contains. .zip and .7z
// archives yield their first .gb/.gbc entry, or their first file if none
// has that extension. .gz and .xz are decompressed. Anything else is
// returned as is.
func Load(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	var rom []byte
	switch ext {
	case ".zip":
		rom, err = fromZip(data)
	case ".7z":
		rom, err = from7z(data)
	case ".gz":
		rom, err = fromGzip(data)
	case ".xz":
		rom, err = fromXZ(data)
	default:
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	glog.V(1).Infof("romfile: %s unpacked %d -> %d bytes", filename, len(data), len(rom))
	return rom, nil
}

// entry is the subset of an archive member both archive readers expose.
type entry struct {
	name  string
	isDir bool
	open  func() (io.ReadCloser, error)
}

func pick(entries []entry) (entry, bool) {
	var first *entry
	for i := range entries {
		e := &entries[i]
		if e.isDir {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.name)) {
		case ".gb", ".gbc":
			return *e, true
		}
		if first == nil {
			first = e
		}
	}
	if first == nil {
		return entry{}, false
	}
	return *first, true
}

func readEntry(entries []entry) ([]byte, error) {
	e, ok := pick(entries)
	if !ok {
		return nil, ErrEmptyArchive
	}
	rc, err := e.open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", e.name, err)
	}
	defer rc.Close()
	return readLimited(rc)
}

func fromZip(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, entry{name: f.Name, isDir: f.FileInfo().IsDir(), open: f.Open})
	}
	return readEntry(entries)
}

func from7z(data []byte) ([]byte, error) {
	r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(r.File))
	for _, f := range r.File {
		entries = append(entries, entry{name: f.Name, isDir: f.FileInfo().IsDir(), open: f.Open})
	}
	return readEntry(entries)
}

func fromGzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return readLimited(zr)
}

func fromXZ(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return readLimited(r)
}

func readLimited(r io.Reader) ([]byte, error) {
	rom, err := io.ReadAll(io.LimitReader(r, maxROMSize+1))
	if err != nil {
		return nil, err
	}
	if len(rom) > maxROMSize {
		return nil, fmt.Errorf("unpacked image exceeds %d bytes", maxROMSize)
	}
	return rom, nil
}
