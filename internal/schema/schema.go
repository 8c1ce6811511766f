package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Response shapes
const (
	Todo         = "todo"
	TodoPage     = "todo_page"
	Priority     = "priority"
	PriorityPage = "priority_page"
	Status       = "status"
	StatusPage   = "status_page"
	Token        = "token"
	User         = "user"
	Availability = "availability"
)

const baseURL = "https://irontodo.local/schemas/"

//go:embed schemas/*.json
var files embed.FS

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

// Error reports a response that does not match its schema
type Error struct {
	Schema  string
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid %s response: %s", e.Schema, e.Message)
	}
	return fmt.Sprintf("invalid %s response at %s: %s", e.Schema, e.Path, e.Message)
}

func load() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		entries, err := files.ReadDir("schemas")
		if err != nil {
			compileErr = err
			return
		}

		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		var names []string
		for _, entry := range entries {
			data, err := files.ReadFile(path.Join("schemas", entry.Name()))
			if err != nil {
				compileErr = err
				return
			}
			if err := compiler.AddResource(baseURL+entry.Name(), bytes.NewReader(data)); err != nil {
				compileErr = fmt.Errorf("failed to add schema %s: %w", entry.Name(), err)
				return
			}
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}

		compiled = make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			sch, err := compiler.Compile(baseURL + name + ".json")
			if err != nil {
				compileErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
				return
			}
			compiled[name] = sch
		}
	})
	return compiled, compileErr
}

// Validate checks body against the named schema
func Validate(name string, body []byte) error {
	schemas, err := load()
	if err != nil {
		return err
	}
	sch, ok := schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return &Error{Schema: name, Message: "body is not JSON"}
	}

	if err := sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := deepest(ve)
			return &Error{Schema: name, Path: leaf.InstanceLocation, Message: leaf.Message}
		}
		return &Error{Schema: name, Message: err.Error()}
	}
	return nil
}

// Decode validates body against the named schema and unmarshals it into out
func Decode(name string, body []byte, out interface{}) error {
	if err := Validate(name, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", name, err)
	}
	return nil
}

// deepest follows the first cause chain to the most specific failure
func deepest(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}
