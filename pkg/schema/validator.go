package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Contract file names under contracts/v1.
const (
	RunSummaryContract   = "run-summary.schema.json"
	RunOverridesContract = "run-overrides.schema.json"
)

//go:embed contracts/v1/*.schema.json
var contracts embed.FS

// Contract returns the raw bytes of an embedded v1 contract.
func Contract(name string) ([]byte, error) {
	data, err := contracts.ReadFile("contracts/v1/" + name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	return data, nil
}

// ValidateContract validates a payload against an embedded v1 contract.
func ValidateContract(name string, payload interface{}) error {
	schemaBytes, err := Contract(name)
	if err != nil {
		return err
	}
	return ValidateBytes(schemaBytes, payload)
}

// ValidateBytes validates an arbitrary payload against a JSON schema.
func ValidateBytes(schemaBytes []byte, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	errors := make([]string, 0, len(result.Errors()))
	for _, issue := range result.Errors() {
		errors = append(errors, issue.String())
	}
	return fmt.Errorf("payload failed schema validation: %s", strings.Join(errors, "; "))
}

// Contracts lists the embedded v1 contract names.
func Contracts() []string {
	return []string{RunSummaryContract, RunOverridesContract}
}

// CompileContracts parses and compiles every embedded contract.
func CompileContracts() error {
	for _, name := range Contracts() {
		data, err := Contract(name)
		if err != nil {
			return err
		}
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse schema json %s: %w", name, err)
		}
		if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data)); err != nil {
			return fmt.Errorf("compile schema %s: %w", name, err)
		}
	}
	return nil
}

// ValidateFile validates a JSON document on disk against an embedded
// contract.
func ValidateFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read payload %s: %w", path, err)
	}
	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse payload json %s: %w", path, err)
	}
	if err := ValidateContract(name, payload); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
