package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const maxBodyBytes = 1 << 20

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	listingSchema = mustCompileSchema("schemas/listing.json")
	leadSchema    = mustCompileSchema("schemas/lead.json")
)

var errMalformedJSON = errors.New("malformed json")

func mustCompileSchema(path string) *jsonschema.Schema {
	b, err := schemaFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", path, err))
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(path, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", path, err))
	}
	schema, err := compiler.Compile(path)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", path, err))
	}
	return schema
}

// validateJSON checks body against schema before it is decoded into a Go type.
func validateJSON(schema *jsonschema.Schema, body []byte) error {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedJSON, err)
	}
	return schema.Validate(v)
}

// decodeValidated reads the request body, validates it and decodes it into dst.
// On failure it writes the 400 response and returns false.
func decodeValidated(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return false
	}

	if err := validateJSON(schema, body); err != nil {
		if errors.Is(err, errMalformedJSON) {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "validation_failed",
			"details": err.Error(),
		})
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}
