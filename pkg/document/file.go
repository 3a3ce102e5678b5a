package document

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/nodeio/pkg/errors"
)

// ExportJSON writes a document to path. The document is written to a
// temporary file in the same directory and renamed into place, so a failed
// export never leaves a partial document behind.
func ExportJSON(d *Document, path string, indent bool) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fileError(err, "create %s", path)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := WriteJSON(d, tmp, indent); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := tmp.Sync(); err != nil {
		return fileError(err, "sync %s", path)
	}
	if err := tmp.Close(); err != nil {
		return fileError(err, "close %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fileError(err, "rename %s", path)
	}
	committed = true
	return nil
}

// ImportJSON reads and decodes the document at path. The result is not
// validated; see [Validate].
func ImportJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fileError(err, "open %s", path)
	}
	defer f.Close()

	d, err := ReadJSON(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "read %s", path)
	}
	return d, nil
}

// Entry is one document found by [ImportDir]. Exactly one of Doc and Err
// is set.
type Entry struct {
	Path string
	Doc  *Document
	Err  error
}

// ImportDir reads every document with the [Extension] suffix directly inside
// dir, sorted by file name. A document that fails to decode is reported in
// its entry and does not stop the others; only an unreadable directory is
// an error.
func ImportDir(dir string) ([]Entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fileError(err, "read directory %s", dir)
	}

	var names []string
	for _, it := range items {
		if it.IsDir() || !strings.EqualFold(filepath.Ext(it.Name()), Extension) {
			continue
		}
		names = append(names, it.Name())
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		d, err := ImportJSON(path)
		entries = append(entries, Entry{Path: path, Doc: d, Err: err})
	}
	return entries, nil
}

// fileError maps filesystem failures to structured error codes.
func fileError(err error, format string, args ...any) error {
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.Wrap(errors.ErrCodeFileNotFound, err, format, args...)
	case stderrors.Is(err, fs.ErrPermission):
		return errors.Wrap(errors.ErrCodePermissionDenied, err, format, args...)
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, format, args...)
	}
}
