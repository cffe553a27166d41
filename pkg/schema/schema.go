// Package schema validates bucket manifests against the manifest JSON
// schema. It backs the verify command; the index builder itself only
// requires well-formed JSON with a version field.
package schema

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// manifestSchema is the subset of the upstream manifest schema this tool
// relies on: field types for everything the index reads, version required.
const manifestSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version"],
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"homepage": {"type": "string"},
		"license": {
			"anyOf": [
				{"type": "string"},
				{
					"type": "object",
					"properties": {
						"identifier": {"type": "string"},
						"url": {"type": "string"}
					}
				}
			]
		},
		"notes": {"$ref": "#/definitions/stringOrArray"},
		"bin": {"$ref": "#/definitions/binField"},
		"depends": {"$ref": "#/definitions/stringOrArray"},
		"url": {"$ref": "#/definitions/stringOrArray"},
		"hash": {"$ref": "#/definitions/stringOrArray"},
		"architecture": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"properties": {
					"url": {"$ref": "#/definitions/stringOrArray"},
					"hash": {"$ref": "#/definitions/stringOrArray"},
					"bin": {"$ref": "#/definitions/binField"}
				}
			}
		},
		"checkver": {
			"anyOf": [{"type": "string"}, {"type": "object"}]
		},
		"autoupdate": {"type": "object"}
	},
	"definitions": {
		"stringOrArray": {
			"anyOf": [
				{"type": "string"},
				{"type": "array", "items": {"type": "string"}}
			]
		},
		"binField": {
			"anyOf": [
				{"type": "string"},
				{
					"type": "array",
					"items": {
						"anyOf": [
							{"type": "string"},
							{"type": "array", "items": {"type": "string"}}
						]
					}
				}
			]
		}
	}
}`

// Violation lists the schema problems of one manifest file.
type Violation struct {
	Path     string   `json:"path"`
	Bucket   string   `json:"bucket"`
	Problems []string `json:"problems"`
}

// Validator checks manifest documents against the embedded schema. It is
// safe for concurrent use once constructed.
type Validator struct {
	schema *gojsonschema.Schema
}

// New compiles the embedded manifest schema.
func New() (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(manifestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Validate checks one manifest document. A nil Violation means the document
// conforms; an error means the document could not be checked at all.
func (v *Validator) Validate(data []byte, path, bucketName string) (*Violation, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &Violation{
			Path:     path,
			Bucket:   bucketName,
			Problems: []string{fmt.Sprintf("not valid JSON: %v", err)},
		}, nil
	}
	if result.Valid() {
		return nil, nil
	}

	violation := &Violation{Path: path, Bucket: bucketName}
	for _, desc := range result.Errors() {
		violation.Problems = append(violation.Problems, desc.String())
	}
	return violation, nil
}

// ValidateFile reads and checks one manifest file.
func (v *Validator) ValidateFile(path, bucketName string) (*Violation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}
	return v.Validate(data, path, bucketName)
}
