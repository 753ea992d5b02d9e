package export

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

func ToYAML(snap *Snapshot, path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(buildDocument(snap)); err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return writeFile(path, buf.Bytes())
}
