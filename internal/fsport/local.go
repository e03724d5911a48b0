package fsport

import (
	"crypto/rand"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

// Local is the real FileSystem implementation, backed by the OS.
type Local struct{}

func NewLocal() Local { return Local{} }

func classifyFSErr(err error, code reachc.Code, msg string) error {
	if err == nil {
		return nil
	}
	return reachc.Classify(err).WithContext("path_op", msg).WithCause(err)
}

func (Local) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyFSErr(err, reachc.CodeArtifactIOError, "read")
	}
	return data, nil
}

// Write persists data to path. When opts.Atomic (the default), it writes to
// a temporary sibling "<target>.<8-random-hex>.tmp" and renames it over the
// target; on rename failure the temp file is best-effort unlinked (§4.1).
func (Local) Write(path string, data []byte, opts WriteOptions) error {
	perm := opts.Perm
	if perm == 0 {
		perm = 0o644
	}
	if opts.CreateParents {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return classifyFSErr(err, reachc.CodeArtifactIOError, "mkdir_parents")
		}
	}
	if !opts.atomic() {
		if err := os.WriteFile(path, data, perm); err != nil {
			return classifyFSErr(err, reachc.CodeArtifactIOError, "write")
		}
		return nil
	}

	tmp, err := tempSiblingPath(path)
	if err != nil {
		return classifyFSErr(err, reachc.CodeArtifactIOError, "tmp_name")
	}
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return classifyFSErr(err, reachc.CodeArtifactIOError, "write_tmp")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return classifyFSErr(err, reachc.CodeArtifactIOError, "rename")
	}
	return nil
}

func tempSiblingPath(target string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return target + "." + hex.EncodeToString(buf) + ".tmp", nil
}

func (Local) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (Local) Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, classifyFSErr(err, reachc.CodeArtifactNotFound, "stat")
	}
	return Info{Name: fi.Name(), Size: fi.Size(), Mode: fi.Mode(), ModTime: fi.ModTime(), IsDir: fi.IsDir()}, nil
}

func (Local) Mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return classifyFSErr(err, reachc.CodeArtifactIOError, "mkdir")
	}
	return nil
}

func (Local) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return classifyFSErr(err, reachc.CodeArtifactIOError, "remove")
	}
	return nil
}

func (Local) Rmdir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return classifyFSErr(err, reachc.CodeArtifactIOError, "rmdir")
	}
	return nil
}

func (Local) List(root string, opts ListOptions) ([]Info, error) {
	var out []Info
	if !opts.Recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, classifyFSErr(err, reachc.CodeArtifactIOError, "list")
		}
		for _, e := range entries {
			if opts.Pattern != "" {
				if ok, _ := filepath.Match(opts.Pattern, e.Name()); !ok {
					continue
				}
			}
			fi, err := e.Info()
			if err != nil {
				continue
			}
			out = append(out, Info{Name: e.Name(), Size: fi.Size(), Mode: fi.Mode(), ModTime: fi.ModTime(), IsDir: fi.IsDir()})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if opts.Pattern != "" {
			if ok, _ := filepath.Match(opts.Pattern, d.Name()); !ok {
				return nil
			}
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		out = append(out, Info{Name: rel, Size: fi.Size(), Mode: fi.Mode(), ModTime: fi.ModTime(), IsDir: fi.IsDir()})
		return nil
	})
	if err != nil {
		return nil, classifyFSErr(err, reachc.CodeArtifactIOError, "list_recursive")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (Local) Copy(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return classifyFSErr(err, reachc.CodeArtifactIOError, "copy_read")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return classifyFSErr(err, reachc.CodeArtifactIOError, "copy_mkdir")
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return classifyFSErr(err, reachc.CodeArtifactIOError, "copy_write")
	}
	return nil
}

func (Local) Rename(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return classifyFSErr(err, reachc.CodeArtifactIOError, "rename")
	}
	return nil
}

func (Local) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", classifyFSErr(err, reachc.CodeArtifactIOError, "resolve")
	}
	return filepath.Clean(abs), nil
}

func (Local) Join(elem ...string) string     { return filepath.Join(elem...) }
func (Local) Dirname(path string) string     { return filepath.Dir(path) }
func (Local) Basename(path string) string    { return filepath.Base(path) }
func (Local) Extname(path string) string     { return filepath.Ext(path) }
func (Local) IsAbsolute(path string) bool    { return filepath.IsAbs(path) }
