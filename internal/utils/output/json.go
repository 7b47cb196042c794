package output

import (
	"encoding/json"
	"os"
)

// SaveJSON writes v as indented JSON to path.
func SaveJSON(v interface{}, path string) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(content, '\n'), 0o644)
}
