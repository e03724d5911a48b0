package fsport

import (
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

// Memory is an in-memory FileSystem fake for tests. Paths are treated as
// POSIX-style regardless of host OS, which keeps tests deterministic.
type Memory struct {
	mu       sync.Mutex
	files    map[string][]byte
	dirs     map[string]bool
	modTimes map[string]time.Time

	// FailRenameOnce, when set, causes the next Rename to fail (used to
	// exercise the "crash between temp write and rename" property).
	FailRenameOnce bool
}

func NewMemory() *Memory {
	return &Memory{
		files:    map[string][]byte{},
		dirs:     map[string]bool{"/": true},
		modTimes: map[string]time.Time{},
	}
}

func clean(p string) string { return path.Clean(p) }

func (m *Memory) touch(p string) { m.modTimes[p] = time.Now().UTC() }

func (m *Memory) ensureParents(p string) {
	dir := path.Dir(clean(p))
	for dir != "." && dir != "/" {
		m.dirs[dir] = true
		m.touch(dir)
		dir = path.Dir(dir)
	}
}

func (m *Memory) Read(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[clean(p)]
	if !ok {
		return nil, reachc.New(reachc.CodeArtifactNotFound, "file not found").WithContext("path", p)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Write(p string, data []byte, opts WriteOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if opts.atomic() && m.FailRenameOnce {
		m.FailRenameOnce = false
		return reachc.New(reachc.CodeArtifactIOError, "simulated rename failure")
	}
	cp := clean(p)
	if opts.CreateParents {
		m.ensureParents(cp)
	}
	cpData := make([]byte, len(data))
	copy(cpData, data)
	m.files[cp] = cpData
	m.touch(cp)
	return nil
}

func (m *Memory) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := clean(p)
	_, f := m.files[cp]
	_, d := m.dirs[cp]
	return f || d
}

func (m *Memory) Stat(p string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := clean(p)
	if data, ok := m.files[cp]; ok {
		return Info{Name: path.Base(cp), Size: int64(len(data)), ModTime: m.modTimes[cp]}, nil
	}
	if m.dirs[cp] {
		return Info{Name: path.Base(cp), IsDir: true, ModTime: m.modTimes[cp]}, nil
	}
	return Info{}, reachc.New(reachc.CodeArtifactNotFound, "not found").WithContext("path", p)
}

func (m *Memory) Mkdir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := clean(p)
	m.dirs[cp] = true
	m.touch(cp)
	m.ensureParents(p)
	return nil
}

func (m *Memory) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := clean(p)
	if _, ok := m.files[cp]; !ok {
		return reachc.New(reachc.CodeArtifactNotFound, "not found").WithContext("path", p)
	}
	delete(m.files, cp)
	return nil
}

func (m *Memory) Rmdir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := clean(p)
	delete(m.dirs, cp)
	prefix := cp + "/"
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			delete(m.files, f)
		}
	}
	return nil
}

func (m *Memory) List(root string, opts ListOptions) ([]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	croot := clean(root)
	prefix := croot
	if prefix != "/" {
		prefix += "/"
	}
	seen := map[string]Info{}

	for f, data := range m.files {
		if !strings.HasPrefix(f, prefix) {
			continue
		}
		rel := strings.TrimPrefix(f, prefix)
		if !opts.Recursive && strings.Contains(rel, "/") {
			continue
		}
		name := rel
		base := path.Base(f)
		if opts.Pattern != "" {
			if ok, _ := path.Match(opts.Pattern, base); !ok {
				continue
			}
		}
		seen[name] = Info{Name: name, Size: int64(len(data)), ModTime: m.modTimes[f]}
	}

	for d := range m.dirs {
		if d == croot || !strings.HasPrefix(d, prefix) {
			continue
		}
		rel := strings.TrimPrefix(d, prefix)
		if !opts.Recursive && strings.Contains(rel, "/") {
			continue
		}
		if opts.Pattern != "" {
			if ok, _ := path.Match(opts.Pattern, path.Base(d)); !ok {
				continue
			}
		}
		seen[rel] = Info{Name: rel, IsDir: true, ModTime: m.modTimes[d]}
	}

	out := make([]Info, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Copy(src, dst string) error {
	data, err := m.Read(src)
	if err != nil {
		return err
	}
	return m.Write(dst, data, DefaultWriteOptions())
}

func (m *Memory) Rename(src, dst string) error {
	m.mu.Lock()
	if m.FailRenameOnce {
		m.FailRenameOnce = false
		m.mu.Unlock()
		return reachc.New(reachc.CodeArtifactIOError, "simulated rename failure")
	}
	data, ok := m.files[clean(src)]
	m.mu.Unlock()
	if !ok {
		return reachc.New(reachc.CodeArtifactNotFound, "rename source not found").WithContext("path", src)
	}
	if err := m.Write(dst, data, DefaultWriteOptions()); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.files, clean(src))
	m.mu.Unlock()
	return nil
}

func (Memory) Resolve(p string) (string, error) { return clean(p), nil }
func (Memory) Join(elem ...string) string       { return path.Join(elem...) }
func (Memory) Dirname(p string) string          { return path.Dir(p) }
func (Memory) Basename(p string) string         { return path.Base(p) }
func (Memory) Extname(p string) string          { return path.Ext(p) }
func (Memory) IsAbsolute(p string) bool         { return strings.HasPrefix(p, "/") }
