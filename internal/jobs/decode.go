package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DecodeJobs converts loosely typed items (from JSON, YAML or a remote API) into jobs.
// Every decoded job is validated; the first invalid one fails the whole batch.
func DecodeJobs(items []any) (*Jobs, error) {
	var decoded []*Job
	if err := decode(items, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode jobs: %v", ErrInvalidInput, err)
	}

	result := &Jobs{Items: make([]*Job, 0, len(decoded))}
	for idx, job := range decoded {
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("%w (job #%d)", err, idx)
		}
		result.Items = append(result.Items, job)
	}

	return result, nil
}

// DecodeProfile converts a loosely typed document into a profile.
// A nil document decodes to a nil profile.
func DecodeProfile(raw any) (*Profile, error) {
	if raw == nil {
		return nil, nil
	}

	if _, ok := raw.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: profile must be an object, got %T", ErrInvalidInput, raw)
	}

	var profile Profile
	if err := decode(raw, &profile); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", ErrInvalidInput, err)
	}

	return &profile, nil
}

// LoadJobsFile reads a JSON or YAML file containing either a list of jobs
// or an object with an "items" list.
func LoadJobsFile(path string) (*Jobs, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	switch typed := raw.(type) {
	case []any:
		return DecodeJobs(typed)
	case map[string]any:
		items, ok := typed["items"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s: expected a list of jobs or an object with items", ErrInvalidInput, path)
		}
		return DecodeJobs(items)
	case nil:
		return &Jobs{}, nil
	default:
		return nil, fmt.Errorf("%w: %s: unexpected document type %T", ErrInvalidInput, path, raw)
	}
}

func LoadProfileFile(path string) (*Profile, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	return DecodeProfile(raw)
}

func readDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing yaml %q: %w", path, err)
		}
	default:
		if len(strings.TrimSpace(string(data))) == 0 {
			return nil, nil
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing json %q: %w", path, err)
		}
	}

	return raw, nil
}

func decode(input, result any) error {
	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           result,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
