package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileSource reads the directory from a local JSON or YAML file. The file is
// re-read on every call so edits apply to the next batch.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Employees(ctx context.Context) ([]Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return decodeJSON(data)
	}
}

func decodeYAML(data []byte) ([]Employee, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var list []Employee
		if err := node.Decode(&list); err != nil {
			return nil, errors.Join(ErrDecode, err)
		}
		return list, nil
	}
	var env envelope
	if err := node.Decode(&env); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return env.list(), nil
}
