// Package pak provides reading functionality for QuakeII PAK archives.
package pak

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/blackbloc/pkg/encoding"
)

// PAK format errors.
var (
	ErrInvalidPakMagic  = errors.New("invalid PAK magic: expected 'PACK'")
	ErrTruncatedPakData = errors.New("truncated PAK data")
	ErrFileNotFound     = errors.New("file not found in PAK")
)

const (
	pakMagic = "PACK"

	headerSize = 12
	entrySize  = 64
	nameSize   = 56
)

// Header is the on-disk PAK header.
type Header struct {
	Magic     [4]byte
	DirOffset int32
	DirLength int32
}

// Entry represents a file stored in the archive.
type Entry struct {
	Name   string
	Offset int64
	Size   int64
}

// dirEntry is the on-disk directory record.
type dirEntry struct {
	Name   [nameSize]byte
	Offset int32
	Size   int32
}

// Archive represents an opened PAK archive.
type Archive struct {
	path     string
	file     *os.File
	size     int64
	header   Header
	fileList map[string]*Entry
	skipped  int
}

// Open opens a PAK archive for reading and indexes its directory.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	archive := &Archive{
		path:     path,
		file:     file,
		size:     info.Size(),
		fileList: make(map[string]*Entry),
	}

	if err := archive.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if err := archive.readDirectory(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	return archive, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		err := a.file.Close()
		a.file = nil
		return err
	}
	return nil
}

// Path returns the file system path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// Skipped returns how many directory entries pointed outside the file and were ignored.
func (a *Archive) Skipped() int {
	return a.skipped
}

func (a *Archive) readHeader() error {
	if a.size < headerSize {
		return fmt.Errorf("%w: %d bytes is too small for header", ErrTruncatedPakData, a.size)
	}

	r := io.NewSectionReader(a.file, 0, headerSize)
	if err := binary.Read(r, binary.LittleEndian, &a.header); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedPakData, err)
	}

	if string(a.header.Magic[:]) != pakMagic {
		return ErrInvalidPakMagic
	}

	return nil
}

func (a *Archive) readDirectory() error {
	dirOfs := int64(a.header.DirOffset)
	dirLen := int64(a.header.DirLength)
	if dirOfs < 0 || dirLen < 0 || dirOfs+dirLen > a.size {
		return fmt.Errorf("%w: directory at %d+%d exceeds %d bytes", ErrTruncatedPakData, dirOfs, dirLen, a.size)
	}

	entries := make([]dirEntry, dirLen/entrySize)
	r := io.NewSectionReader(a.file, dirOfs, dirLen)
	if err := binary.Read(r, binary.LittleEndian, entries); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedPakData, err)
	}

	for _, de := range entries {
		entry := &Entry{
			Name:   encoding.NormalizePath(encoding.FixedString(de.Name[:])),
			Offset: int64(de.Offset),
			Size:   int64(de.Size),
		}

		if entry.Offset < 0 || entry.Size < 0 || entry.Offset+entry.Size > a.size {
			a.skipped++
			continue
		}

		// A later directory entry with the same name overrides the earlier one.
		a.fileList[entry.Name] = entry
	}

	return nil
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.fileList))
	for path := range a.fileList {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.fileList[encoding.NormalizePath(path)]
	return ok
}

// Stat returns the directory entry for path.
func (a *Archive) Stat(path string) (*Entry, bool) {
	entry, ok := a.fileList[encoding.NormalizePath(path)]
	return entry, ok
}

// Read reads a whole file from the archive.
func (a *Archive) Read(path string) ([]byte, error) {
	entry, ok := a.fileList[encoding.NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if a.file == nil {
		return nil, fmt.Errorf("reading %s: archive closed", path)
	}

	data := make([]byte, entry.Size)
	if _, err := a.file.ReadAt(data, entry.Offset); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
