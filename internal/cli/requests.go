package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vnykmshr/reqstream/pkg/streaming/reqstream"
)

// RequestFile is the YAML layout accepted by --file:
//
//	requests:
//	  - target: https://example.com/a
//	    key: audit
//	    options:
//	      method: POST
//	      body: "{}"
type RequestFile struct {
	Requests []RequestSpec `yaml:"requests"`
}

// RequestSpec is one request in a RequestFile.
type RequestSpec struct {
	Target  string         `yaml:"target"`
	Key     string         `yaml:"key,omitempty"`
	Options map[string]any `yaml:"options,omitempty"`
}

// LoadRequests reads a RequestFile from path.
func LoadRequests(path string) ([]reqstream.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	return ParseRequests(data)
}

// ParseRequests decodes a RequestFile. Unknown fields are rejected.
func ParseRequests(data []byte) ([]reqstream.Request, error) {
	var file RequestFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse request file: %w", err)
	}

	reqs := make([]reqstream.Request, 0, len(file.Requests))
	for i, spec := range file.Requests {
		if spec.Target == "" {
			return nil, fmt.Errorf("request %d: target is required", i)
		}
		reqs = append(reqs, reqstream.Request{
			Target:  spec.Target,
			Key:     spec.Key,
			Options: spec.Options,
		})
	}
	return reqs, nil
}

// collectRequests merges positional targets with the request file, file
// entries first.
func collectRequests(file string, targets []string) ([]reqstream.Request, error) {
	var reqs []reqstream.Request
	if file != "" {
		loaded, err := LoadRequests(file)
		if err != nil {
			return nil, err
		}
		reqs = loaded
	}
	for _, target := range targets {
		reqs = append(reqs, reqstream.Request{Target: target})
	}
	if len(reqs) == 0 {
		return nil, errors.New("no requests: pass targets as arguments or use --file")
	}
	return reqs, nil
}
