// Package schemas embeds the JSON Schemas for backend payloads.
package schemas

import "embed"

// FormStructure and AtsScore are the embedded schema file names.
const (
	FormStructure = "form_structure.schema.json"
	AtsScore      = "ats_score.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Load returns the raw content of an embedded schema.
func Load(name string) ([]byte, error) {
	return files.ReadFile(name)
}
