package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
)

// FileHash computes the SHA-256 of a file's content as a 64-character hex
// string.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Staging is the outcome of [CopyInto].
type Staging struct {
	// Written lists the files this call created.
	Written []string
	// Renamed maps a source name to the name it was staged under because a
	// different file already used it.
	Renamed map[string]string
}

// Apply points manifest entries at their staged names and returns one
// NAME_CONFLICT warning per renamed file.
func (s Staging) Apply(deps []document.Dependency) []errors.Warning {
	if len(s.Renamed) == 0 {
		return nil
	}
	var warnings []errors.Warning
	for i, d := range deps {
		to, ok := s.Renamed[d.Path]
		if !ok {
			continue
		}
		deps[i].Path = to
		warnings = append(warnings, errors.Warning{
			Code: errors.WarnNameConflict, Key: d.Name,
			Message: fmt.Sprintf("a different %s already exists in the output folder, staged as %s", d.Path, to),
		})
	}
	return warnings
}

// Remove deletes the files this call created.
func (s Staging) Remove() {
	for _, p := range s.Written {
		_ = os.Remove(p)
	}
}

// CopyInto copies every source into dir under its bare name. A target that
// already holds identical content is left alone; a target holding other
// content is never overwritten, the source is staged under the first free
// numbered name instead. On failure every file written by this call is
// removed.
func CopyInto(dir string, sources []Source) (Staging, error) {
	var st Staging
	names := make(map[string]bool, len(sources))
	for _, src := range sources {
		names[src.Name] = true
	}

	for _, src := range sources {
		if err := errors.ValidateAssetFilename(src.Name); err != nil {
			st.Remove()
			return Staging{}, err
		}
		name, same, err := stagedName(dir, src, names)
		if err != nil {
			st.Remove()
			return Staging{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "stage %s", src.Name)
		}
		if name != src.Name {
			if st.Renamed == nil {
				st.Renamed = make(map[string]string)
			}
			st.Renamed[src.Name] = name
			names[name] = true
		}
		if same {
			continue
		}
		dst := filepath.Join(dir, name)
		if err := copyFile(src.Path, dst); err != nil {
			st.Remove()
			return Staging{}, errors.Wrap(errors.ErrCodeInternal, err, "stage %s", src.Name)
		}
		st.Written = append(st.Written, dst)
	}
	return st, nil
}

// stagedName picks the name src is staged under: its own name when that is
// free or already holds the same content, otherwise the first numbered
// variant that is. reserved holds names other sources of the batch use.
func stagedName(dir string, src Source, reserved map[string]bool) (name string, same bool, err error) {
	same, exists, err := sameContent(src.Path, filepath.Join(dir, src.Name))
	if err != nil {
		return "", false, err
	}
	if same || !exists {
		return src.Name, same, nil
	}
	var statErr error
	taken := func(s string) bool {
		if reserved[s] {
			return true
		}
		var exists bool
		same, exists, statErr = sameContent(src.Path, filepath.Join(dir, s))
		return statErr == nil && exists && !same
	}
	name = numbered(src.Name, taken)
	if statErr != nil {
		return "", false, statErr
	}
	return name, same, nil
}

// sameContent reports whether dst exists and whether it matches src byte
// for byte.
func sameContent(src, dst string) (same, exists bool, err error) {
	srcHash, err := FileHash(src)
	if err != nil {
		return false, false, err
	}
	dstHash, err := FileHash(dst)
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, true, err
	}
	return srcHash == dstHash, true, nil
}

// copyFile writes src to dst through a temporary file in dst's directory.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".nodeio-asset-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
