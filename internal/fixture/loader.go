package fixture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultTestDir is the directory a declaration's Path defaults into when the
// document does not name one.
const DefaultTestDir = "tests"

// Format selects the document syntax of a declaration.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the syntax from a file extension. Unknown extensions are
// read as YAML.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// IsDeclaration reports whether name carries an extension the loader reads.
func IsDeclaration(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}

// Parse decodes a declaration. name picks the syntax and supplies the
// default test path, so test_dummy_4.yaml becomes tests/test_dummy_4.py.
func Parse(name string, data []byte) (File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, fmt.Errorf("fixture: %s: declaration is empty", name)
	}
	var file File
	switch FormatFor(name) {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return File{}, fmt.Errorf("fixture: decode %s: %w", name, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return File{}, fmt.Errorf("fixture: decode %s: %w", name, err)
		}
	}
	if strings.TrimSpace(file.Path) == "" {
		file.Path = DefaultPath(name)
	}
	return file.Normalized()
}

// DefaultPath derives a test module path from a declaration file name.
func DefaultPath(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "test_module"
	}
	return DefaultTestDir + "/" + stem + ".py"
}

// LoadReader reads a declaration from r. name is used as in Parse.
func LoadReader(name string, r io.Reader) (File, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("fixture: read %s: %w", name, err)
	}
	return Parse(name, content)
}

// LoadFile loads a declaration from disk.
func LoadFile(path string) (File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	return Parse(path, content)
}
