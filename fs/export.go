package fs

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/dockb"
	"gopkg.in/yaml.v3"
)

// exportPageSize is the number of documents read per query during export.
const exportPageSize = 200

// URLToPath converts a document URL to a relative file path under its host.
// Example: https://example.com/docs/api/users → example.com/docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", dockb.Errorf(dockb.EINVALID, "invalid URL %q", rawURL)
	}
	host := strings.ReplaceAll(strings.ToLower(u.Host), ":", "_")
	if host == "" {
		return "", dockb.Errorf(dockb.EINVALID, "URL %q has no host", rawURL)
	}

	p := path.Clean("/" + u.Path)
	if p == "/" || strings.HasSuffix(u.Path, "/") {
		return filepath.FromSlash(path.Join(host, p, "index.md")), nil
	}
	return filepath.FromSlash(path.Join(host, p) + ".md"), nil
}

// frontmatter is the YAML header of an exported document.
type frontmatter struct {
	Source      string    `yaml:"source"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description,omitempty"`
	Category    string    `yaml:"category"`
	Tags        []string  `yaml:"tags,omitempty"`
	Indexed     time.Time `yaml:"indexed"`
}

// FormatDocument formats a document as Markdown with YAML frontmatter.
// Plain text is used when the document has no Markdown rendition.
func FormatDocument(doc *dockb.Document) (string, error) {
	header, err := yaml.Marshal(frontmatter{
		Source:      doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Category:    doc.Metadata.Category,
		Tags:        doc.Metadata.Tags,
		Indexed:     doc.IndexedAt.UTC(),
	})
	if err != nil {
		return "", err
	}

	body := doc.Markdown
	if body == "" {
		body = doc.Text
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String(), nil
}

// Exporter writes the documents of a knowledge base as Markdown files.
// Files are written to a temporary directory which replaces the target
// directory only once every document was written.
type Exporter struct {
	baseDir string
}

// NewExporter creates a new Exporter writing to baseDir.
func NewExporter(baseDir string) *Exporter {
	return &Exporter{baseDir: baseDir}
}

// Export writes every document in docs and returns how many were written.
func (e *Exporter) Export(ctx context.Context, docs dockb.DocumentService) (int, error) {
	tmp := strings.TrimRight(e.baseDir, string(filepath.Separator)) + tmpSuffix
	if err := os.RemoveAll(tmp); err != nil {
		return 0, err
	}

	n, err := e.writeAll(ctx, tmp, docs)
	if err != nil {
		_ = os.RemoveAll(tmp)
		return 0, err
	}

	if err := os.RemoveAll(e.baseDir); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, e.baseDir); err != nil {
		return 0, err
	}
	return n, nil
}

func (e *Exporter) writeAll(ctx context.Context, dir string, docs dockb.DocumentService) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	n := 0
	for offset := 0; ; offset += exportPageSize {
		page, err := docs.FindDocuments(ctx, dockb.DocumentFilter{Offset: offset, Limit: exportPageSize})
		if err != nil {
			return 0, err
		}
		for _, doc := range page {
			if err := writeDocument(dir, doc); err != nil {
				return 0, err
			}
			n++
		}
		if len(page) < exportPageSize {
			return n, nil
		}
	}
}

func writeDocument(dir string, doc *dockb.Document) error {
	relPath, err := URLToPath(doc.ID)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}

	content, err := FormatDocument(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(content), 0o644)
}
