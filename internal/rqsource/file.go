package rqsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tinytelemetry/jobwatch/internal/model"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnsupportedFormat is returned for fixture files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("rqsource: unsupported fixture format")

// FileProvider serves a snapshot stored in a JSON or YAML file. The file is
// read on every call so edits show up without a restart.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) (*FileProvider, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("rqsource: fixture: %w", err)
	}
	return &FileProvider{path: path}, nil
}

func (p *FileProvider) Snapshot(_ context.Context) (model.QueueSnapshot, error) {
	var snapshot model.QueueSnapshot

	data, err := os.ReadFile(p.path)
	if err != nil {
		return snapshot, fmt.Errorf("rqsource: read fixture: %w", err)
	}

	if ext := strings.ToLower(filepath.Ext(p.path)); ext == ".yaml" || ext == ".yml" {
		data, err = yamlToJSON(data)
		if err != nil {
			return snapshot, err
		}
	}

	if err := snapshot.UnmarshalJSON(data); err != nil {
		return model.QueueSnapshot{}, fmt.Errorf("rqsource: decode fixture: %w", err)
	}
	return snapshot, nil
}

// yamlToJSON re-encodes a YAML document as JSON, keeping top-level key order.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rqsource: parse yaml fixture: %w", err)
	}
	if len(doc.Content) == 0 {
		return []byte("{}"), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, model.ErrSnapshotShape
	}

	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	stream.WriteObjectStart()
	for i := 0; i+1 < len(root.Content); i += 2 {
		if i > 0 {
			stream.WriteMore()
		}
		var value interface{}
		if err := root.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("rqsource: decode queue %q: %w", root.Content[i].Value, err)
		}
		stream.WriteObjectField(root.Content[i].Value)
		stream.WriteVal(value)
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, fmt.Errorf("rqsource: encode yaml fixture: %w", stream.Error)
	}
	return append([]byte(nil), stream.Buffer()...), nil
}
