/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fancyscript/internal/domain"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed schema/script.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// maxSchemaErrors bounds the detail carried in a MalformedScriptError.
const maxSchemaErrors = 3

// Parse decodes a script document. The structure is checked against the
// bundled JSON schema first so that shape problems come back as one readable
// MalformedScriptError instead of a decoder message.
func Parse(data []byte) (domain.RawScript, error) {
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, malformed("not valid JSON", err)
	}
	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile script schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, malformed("schema validation failed", err)
	}
	if !res.Valid() {
		return nil, schemaError(res.Errors())
	}
	var raw domain.RawScript
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, malformed("cannot decode elements", err)
	}
	return raw, nil
}

func schemaError(errs []gojsonschema.ResultError) *MalformedScriptError {
	msgs := make([]string, 0, maxSchemaErrors)
	for i, e := range errs {
		if i == maxSchemaErrors {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(errs)-maxSchemaErrors))
			break
		}
		msgs = append(msgs, e.String())
	}
	reason := "script must be an array of character ids, character objects and an optional _meta object"
	if len(errs) > 0 && errs[0].Field() == "(root)" && errs[0].Type() == "invalid_type" {
		reason = "script is not an array"
	}
	return &MalformedScriptError{Index: -1, Reason: reason, Err: errors.New(strings.Join(msgs, "; "))}
}
