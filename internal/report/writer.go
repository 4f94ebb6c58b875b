package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/ledgerconv/internal/ledger"
)

// Defaults for the generated artifact.
const (
	DefaultHeader     = "/** Auto-generated by ledgerconv */"
	DefaultIdentifier = "NEKO_CITY_DATA"
)

// ArtifactOptions controls how the document is wrapped.
type ArtifactOptions struct {
	Header     string
	Identifier string
}

func (o ArtifactOptions) withDefaults() ArtifactOptions {
	if o.Header == "" {
		o.Header = DefaultHeader
	}
	if o.Identifier == "" {
		o.Identifier = DefaultIdentifier
	}
	return o
}

// Render serializes doc as a JavaScript module exporting it as a constant.
// JSON is indented with four spaces and leaves HTML and non-ASCII characters
// unescaped.
func Render(doc *Document, opts ArtifactOptions) ([]byte, error) {
	opts = opts.withDefaults()

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(opts.Header)
	out.WriteByte('\n')
	fmt.Fprintf(&out, "export const %s = ", opts.Identifier)
	out.Write(bytes.TrimRight(body.Bytes(), "\n"))
	out.WriteString(";\n")
	return out.Bytes(), nil
}

// WriteArtifact renders doc and writes it to path, creating parent
// directories. The file is written to a temporary sibling and renamed into
// place, so a failed write leaves any previous artifact untouched.
func WriteArtifact(path string, doc *Document, opts ArtifactOptions) (int, error) {
	data, err := Render(doc, opts)
	if err != nil {
		return 0, &ledger.SerializationError{Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, &ledger.SerializationError{Path: path, Err: fmt.Errorf("create directory: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, &ledger.SerializationError{Path: path, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, &ledger.SerializationError{Path: path, Err: fmt.Errorf("write temp file: %w", err)}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, &ledger.SerializationError{Path: path, Err: fmt.Errorf("sync temp file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return 0, &ledger.SerializationError{Path: path, Err: fmt.Errorf("close temp file: %w", err)}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, &ledger.SerializationError{Path: path, Err: fmt.Errorf("chmod temp file: %w", err)}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, &ledger.SerializationError{Path: path, Err: fmt.Errorf("rename into place: %w", err)}
	}
	committed = true

	return len(data), nil
}
