// Package export writes a task collection in a few text formats.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"taskpad/internal/task"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(v string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, v)
	}
}

// document wraps the list for formats without top-level arrays.
type document struct {
	Tasks []task.Task `toml:"tasks" yaml:"tasks"`
}

func Write(w io.Writer, tasks []task.Task, f Format) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document{Tasks: tasks}); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(document{Tasks: tasks})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}
