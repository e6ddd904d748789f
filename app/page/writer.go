package page

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputPath maps a route path to its file relative to the output root:
// "/" is index.html and every other path is {path}/index.html.
func OutputPath(routePath string) string {
	trimmed := strings.Trim(routePath, "/")
	if trimmed == "" {
		return "index.html"
	}
	return trimmed + "/index.html"
}

// Write replaces the page's file under root and returns its path.
func Write(p Page, root string) (string, error) {
	return WriteFile(root, p.Output, p.HTML)
}

// WriteFile replaces root/name with data. The file is written to a temporary
// name first so readers never see a partial document.
func WriteFile(root, name string, data []byte) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if rel, err := filepath.Rel(root, target); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("output %q escapes %s", name, root)
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".routesnap-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("failed to set permissions on %s: %w", target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to replace %s: %w", target, err)
	}

	return target, nil
}
