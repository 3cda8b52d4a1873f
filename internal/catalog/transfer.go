package catalog

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vrsandeep/vnshelf/internal/models"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ImportRequest is the body accepted by Import in either format.
type ImportRequest struct {
	Entries []*models.Entry `json:"entries"`
	Mode    string          `json:"mode"`
}

// EncodeDocument renders v in the given format. YAML output uses the same
// field names as JSON.
func EncodeDocument(v any, format string) ([]byte, error) {
	switch format {
	case "", FormatJSON:
		return json.MarshalIndent(v, "", "  ")
	case FormatYAML:
		generic, err := toGeneric(v)
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidInput, format)
	}
}

// DecodeDocument parses data written in the given format into v.
func DecodeDocument(data []byte, format string, v any) error {
	switch format {
	case "", FormatJSON:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil
	case FormatYAML:
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		raw, err := json.Marshal(generic)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidInput, format)
	}
}

// toGeneric round-trips v through JSON so yaml sees the json tags.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}
