package api

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"secretbox/models"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var secretSchema []byte

// MessageValidator checks records against the embedded JSON schema before they are written.
type MessageValidator struct {
	once   sync.Once
	schema *gojsonschema.Schema
	err    error
	source []byte
}

func NewMessageValidator() *MessageValidator {
	return &MessageValidator{source: secretSchema}
}

func (v *MessageValidator) load() {
	v.schema, v.err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(v.source))
	if v.err != nil {
		v.err = fmt.Errorf("compile schema: %w", v.err)
	}
}

func (v *MessageValidator) Validate(msg models.Message) error {
	v.once.Do(v.load)
	if v.err != nil {
		return v.err
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	res, err := v.schema.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return err
	}
	if !res.Valid() {
		return fmt.Errorf("message invalid: %v", res.Errors())
	}
	return nil
}
