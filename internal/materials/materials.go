// Package materials indexes course PDFs laid out as <dir>/<subject>/*.pdf.
package materials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Catalog maps each subject to its PDF file names.
type Catalog map[string][]string

// Scan lists every subject directory under dir and the PDFs directly
// inside it. Subjects with no PDFs are kept with an empty list.
func Scan(dir string) (Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read materials dir: %w", err)
	}

	cat := make(Catalog)
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read subject %s: %w", e.Name(), err)
		}
		pdfs := []string{}
		for _, f := range files {
			if f.Type().IsRegular() && strings.EqualFold(filepath.Ext(f.Name()), ".pdf") {
				pdfs = append(pdfs, f.Name())
			}
		}
		sort.Strings(pdfs)
		cat[e.Name()] = pdfs
	}
	return cat, nil
}

// Subjects returns the subject names in order.
func (c Catalog) Subjects() []string {
	out := make([]string, 0, len(c))
	for s := range c {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Count is the total number of files across subjects.
func (c Catalog) Count() int {
	n := 0
	for _, files := range c {
		n += len(files)
	}
	return n
}

// WriteFile stores the catalog as indented JSON at path.
func (c Catalog) WriteFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Ref identifies one file in the catalog.
type Ref struct {
	Subject string
	File    string
}

// Topic is the file name without its extension.
func (r Ref) Topic() string {
	return strings.TrimSuffix(r.File, filepath.Ext(r.File))
}

// ParseRef splits "subject/file.pdf".
func ParseRef(s string) (Ref, error) {
	s = filepath.ToSlash(strings.TrimSpace(s))
	subject, file, ok := strings.Cut(s, "/")
	if !ok || subject == "" || file == "" || strings.Contains(file, "/") ||
		subject == ".." || file == ".." || subject == "." {
		return Ref{}, fmt.Errorf("invalid material reference %q, want subject/file.pdf", s)
	}
	return Ref{Subject: subject, File: file}, nil
}

// ErrNotFound is returned by Resolve for references outside the catalog.
var ErrNotFound = errors.New("material not found")

// Resolve returns the on-disk path of ref under dir.
func Resolve(dir string, ref Ref) (string, error) {
	p := filepath.Join(dir, ref.Subject, ref.File)
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, ref.Subject, ref.File)
	}
	return p, nil
}
