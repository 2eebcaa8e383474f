package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// File is the on-disk representation of one or more diagrams. A TOML file
// may define several named diagrams under [diagram.<name>]; a JSON file
// holds exactly one diagram.
type File struct {
	Diagrams map[string]*Diagram `toml:"diagram"`
}

// Names returns the diagram names in the file, sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Diagrams))
	for name := range f.Diagrams {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ReadFile loads a diagram file, dispatching on extension: .toml files may
// define multiple named diagrams, .json files define a single diagram
// stored under the name "default".
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return decodeTOML(data)
	case ".json":
		return decodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported diagram file extension %q (want .toml or .json)", filepath.Ext(path))
	}
}

func decodeTOML(data []byte) (*File, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}
	if len(f.Diagrams) == 0 {
		// Allow bare files without the [diagram.<name>] wrapper.
		var d Diagram
		if err := toml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if len(d.Nodes) == 0 {
			return nil, fmt.Errorf("no diagrams defined")
		}
		f.Diagrams = map[string]*Diagram{"default": &d}
	}
	for name, d := range f.Diagrams {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("diagram %q: %w", name, err)
		}
	}
	return &f, nil
}

func decodeJSON(data []byte) (*File, error) {
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &File{Diagrams: map[string]*Diagram{"default": &d}}, nil
}

// WriteJSON writes a diagram as indented JSON.
func WriteJSON(d *Diagram, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal converts a diagram to JSON bytes via [WriteJSON].
func Marshal(d *Diagram) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
