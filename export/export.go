package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ToJSON writes data to dir/name.json, replacing any existing file, and
// returns the path written. dir must already exist.
func ToJSON(dir, name string, data any) (string, error) {
	filename := filepath.Join(dir, name+".json")

	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filename, b, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}

	log.Info().Str("file", filename).Int("bytes", len(b)).Msgf("Data exported to '%s'", filename)
	return filename, nil
}
