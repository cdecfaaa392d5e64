package prefabs

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed *.yaml
var scenesFS embed.FS

//go:embed scripts/*.tengo
var scriptsFS embed.FS

// DiskRoot is searched for edited copies of scene and script files before
// the embedded ones.
var DiskRoot = "prefabs"

// Load returns a scene file. A name that is a readable path on its own is
// also accepted.
func Load(name string) ([]byte, error) {
	return readFile(scenesFS, scenePath(name), name)
}

// LoadScript returns a tengo script by name, with or without the scripts/
// prefix.
func LoadScript(name string) ([]byte, error) {
	return readFile(scriptsFS, scriptPath(name))
}

// Scenes lists the embedded scene files.
func Scenes() []string {
	names, _ := fs.Glob(scenesFS, "*.yaml")
	return names
}

func readFile(fsys embed.FS, rel string, extra ...string) ([]byte, error) {
	candidates := append([]string{filepath.Join(DiskRoot, filepath.FromSlash(rel))}, extra...)
	for _, p := range candidates {
		if data, err := os.ReadFile(p); err == nil {
			return data, nil
		}
	}
	data, err := fsys.ReadFile(rel)
	if err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", rel, err)
	}
	return data, nil
}

func scenePath(name string) string {
	return strings.TrimPrefix(filepath.ToSlash(name), "prefabs/")
}

func scriptPath(name string) string {
	s := filepath.ToSlash(name)
	for _, prefix := range []string{"prefabs/", "scripts/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	return path.Join("scripts", s)
}
