package resource

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ZipArchive is an Archive stored as a zip container whose entries are named
// "TAG/ID" with a decimal id, for example "VIEW/1000".
type ZipArchive struct {
	name    string
	file    *os.File
	reader  *zip.Reader
	entries map[Key]*zip.File
}

// OpenZip opens the zip-backed archive at path.
//
// Precondition: path must name a readable zip file.
// Postcondition: Returns an open archive or a non-nil error; malformed entry
// names are ignored.
func OpenZip(p string) (*ZipArchive, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", p, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive %s: %w", p, err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading archive %s: %w", p, err)
	}
	a := &ZipArchive{
		name:    filepath.Base(p),
		file:    f,
		reader:  zr,
		entries: make(map[Key]*zip.File, len(zr.File)),
	}
	for _, zf := range zr.File {
		key, ok := parseEntryName(zf.Name)
		if !ok {
			continue
		}
		a.entries[key] = zf
	}
	return a, nil
}

func parseEntryName(name string) (Key, bool) {
	dir, base := path.Split(name)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || base == "" {
		return Key{}, false
	}
	tag, err := ParseTag(dir)
	if err != nil {
		return Key{}, false
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	id, err := strconv.ParseUint(base, 10, 16)
	if err != nil {
		return Key{}, false
	}
	return Key{Tag: tag, ID: uint16(id)}, true
}

// EntryName returns the zip entry name used for (tag, id).
func EntryName(tag Tag, id uint16) string {
	return fmt.Sprintf("%s/%d", tag, id)
}

// Name returns the archive file name.
func (a *ZipArchive) Name() string { return a.name }

// HasResource reports whether the archive holds (tag, id).
func (a *ZipArchive) HasResource(tag Tag, id uint16) bool {
	_, ok := a.entries[Key{Tag: tag, ID: id}]
	return ok
}

// GetResource decompresses and returns the resource bytes.
func (a *ZipArchive) GetResource(tag Tag, id uint16) ([]byte, error) {
	key := Key{Tag: tag, ID: id}
	zf, ok := a.entries[key]
	if !ok {
		return nil, fmt.Errorf("%s: %s: %w", a.name, key, ErrNotFound)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: opening %s: %w", a.name, key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: reading %s: %w", a.name, key, err)
	}
	return data, nil
}

// ResourceIDs returns the ids stored under tag, ascending.
func (a *ZipArchive) ResourceIDs(tag Tag) []uint16 {
	var ids []uint16
	for k := range a.entries {
		if k.Tag == tag {
			ids = append(ids, k.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Tags returns every tag present in the archive, sorted by their string form.
func (a *ZipArchive) Tags() []Tag {
	seen := make(map[Tag]bool)
	var tags []Tag
	for k := range a.entries {
		if !seen[k.Tag] {
			seen[k.Tag] = true
			tags = append(tags, k.Tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
	return tags
}

// Close closes the underlying file.
func (a *ZipArchive) Close() error {
	return a.file.Close()
}

// DirOpener opens zip archives relative to a data directory.
type DirOpener struct {
	Root string
}

// Open opens Root/filename as a ZipArchive.
func (d DirOpener) Open(filename string) (Archive, error) {
	a, err := OpenZip(filepath.Join(d.Root, filename))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// WriteZip writes the resources of a MemArchive into w as a zip archive.
// Used by tooling that packs test fixtures and by tests.
//
// Postcondition: Returns nil when every entry was written and the zip closed.
func WriteZip(w io.Writer, a *MemArchive) error {
	a.mu.Lock()
	keys := make([]Key, 0, len(a.data))
	for k := range a.data {
		keys = append(keys, k)
	}
	a.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Tag != keys[j].Tag {
			return keys[i].Tag < keys[j].Tag
		}
		return keys[i].ID < keys[j].ID
	})

	zw := zip.NewWriter(w)
	for _, k := range keys {
		data, err := a.GetResource(k.Tag, k.ID)
		if err != nil {
			return err
		}
		fw, err := zw.Create(EntryName(k.Tag, k.ID))
		if err != nil {
			return fmt.Errorf("creating entry %s: %w", k, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("writing entry %s: %w", k, err)
		}
	}
	return zw.Close()
}
