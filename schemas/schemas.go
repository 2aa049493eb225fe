// Package schemas holds the embedded JSON Schemas shared by the CLI and the
// web API.
package schemas

import _ "embed"

// DatasetSchemaJSON is the JSON Schema for problem dataset files.
//
//go:embed dataset.schema.json
var DatasetSchemaJSON string
