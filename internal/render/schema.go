package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/emrgen/folio/internal/model"
	"github.com/xeipuuv/gojsonschema"
)

// documentSchema accepts every shape a stored or previewed document has taken,
// including legacy string achievements. Members are optional; only their types
// are checked.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "name": {"type": ["string", "null"]},
    "about": {"type": ["string", "null"]},
    "profileImage": {"type": ["string", "null"]},
    "resume": {"type": ["string", "null"]},
    "theme": {"type": ["string", "null"]},
    "animation": {"type": ["string", "null"]},
    "skills": {"type": ["array", "null"], "items": {"type": "string"}},
    "projects": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": ["string", "null"]},
          "description": {"type": ["string", "null"]},
          "technologies": {"type": ["string", "null"]},
          "link": {"type": ["string", "null"]},
          "image": {"type": ["string", "null"]}
        }
      }
    },
    "experience": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": ["string", "null"]},
          "company": {"type": ["string", "null"]},
          "duration": {"type": ["string", "null"]},
          "description": {"type": ["string", "null"]}
        }
      }
    },
    "achievements": {
      "type": ["array", "null"],
      "items": {
        "oneOf": [
          {"type": "string"},
          {"type": "null"},
          {
            "type": "object",
            "properties": {
              "title": {"type": ["string", "null"]},
              "image": {"type": ["string", "null"]}
            }
          }
        ]
      }
    },
    "socialLinks": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["string", "null"]}
    },
    "stats": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["string", "null"]}
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
})

// ValidateJSON checks that data has the shape of a portfolio document.
func ValidateJSON(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}

// ResolveJSON validates and decodes a serialized document, then resolves it.
func ResolveJSON(data []byte, assetBase string) (*ViewModel, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}

	doc, err := model.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	return Resolve(doc, assetBase)
}
