// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package apidocs serves the public separation API description shown on the
// API documentation page.
package apidocs

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

//go:embed quickstart.js
var quickStart string

// Field describes a parameter, form field or response property.
type Field struct {
	Name        string
	In          string
	Type        string
	Required    bool
	Description string
	Enum        []string
}

// Endpoint is one documented operation.
type Endpoint struct {
	Method      string
	Path        string
	OperationID string
	Summary     string
	Description string
	Params      []Field
	FormFields  []Field
	// Response lists the properties of the success JSON body, if any.
	Response []Field
}

// QueryParams returns the parameters that are not part of the path.
func (e Endpoint) QueryParams() []Field {
	var out []Field
	for _, p := range e.Params {
		if p.In != openapi3.ParameterInPath {
			out = append(out, p)
		}
	}
	return out
}

// ClientLibrary is an SDK advertised on the page.
type ClientLibrary struct {
	Language    string
	Badge       string
	Description string
	Install     string
}

// Document is the parsed and validated API description.
type Document struct {
	doc       *openapi3.T
	endpoints []Endpoint
}

// Load parses the embedded OpenAPI document and validates it.
func Load(ctx context.Context) (*Document, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi: %w", err)
	}
	return &Document{doc: doc, endpoints: collect(doc)}, nil
}

// Raw returns the document as embedded.
func Raw() []byte { return rawSpec }

// QuickStart returns the client example shown on the page.
func QuickStart() string { return quickStart }

// Title returns info.title.
func (d *Document) Title() string { return d.doc.Info.Title }

// Version returns info.version.
func (d *Document) Version() string { return d.doc.Info.Version }

// Description returns info.description.
func (d *Document) Description() string { return strings.TrimSpace(d.doc.Info.Description) }

// ServerURL returns the first server URL.
func (d *Document) ServerURL() string {
	if len(d.doc.Servers) == 0 {
		return ""
	}
	return d.doc.Servers[0].URL
}

// Endpoints returns the operations ordered by path, then method.
func (d *Document) Endpoints() []Endpoint { return slices.Clone(d.endpoints) }

// Endpoint finds an operation by method and path.
func (d *Document) Endpoint(method, path string) (Endpoint, bool) {
	for _, e := range d.endpoints {
		if e.Method == method && e.Path == path {
			return e, true
		}
	}
	return Endpoint{}, false
}

// ClientLibraries lists the official SDKs.
func ClientLibraries() []ClientLibrary {
	return []ClientLibrary{
		{"JavaScript", "JS", "A complete JavaScript client for Node.js and browser applications.", "npm install audio-separator-client"},
		{"Python", "Py", "Python client with async support for backend and data processing applications.", "pip install audio-separator"},
		{"PHP", "PHP", "PHP client for server-side applications and content management systems.", "composer require audio-separator/client"},
	}
}

// ServeHTTP serves the raw document.
func ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(rawSpec)
}

func collect(doc *openapi3.T) []Endpoint {
	var out []Endpoint
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			e := Endpoint{
				Method:      method,
				Path:        path,
				OperationID: op.OperationID,
				Summary:     op.Summary,
				Description: op.Description,
			}
			for _, p := range slices.Concat(item.Parameters, op.Parameters) {
				if p == nil || p.Value == nil {
					continue
				}
				e.Params = append(e.Params, Field{
					Name:        p.Value.Name,
					In:          p.Value.In,
					Type:        schemaType(p.Value.Schema),
					Required:    p.Value.Required,
					Description: p.Value.Description,
					Enum:        enumValues(p.Value.Schema),
				})
			}
			if op.RequestBody != nil && op.RequestBody.Value != nil {
				if mt := op.RequestBody.Value.Content.Get("multipart/form-data"); mt != nil {
					e.FormFields = properties(mt.Schema)
				}
			}
			if resp := successResponse(op); resp != nil {
				if mt := resp.Content.Get("application/json"); mt != nil {
					e.Response = properties(mt.Schema)
				}
			}
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b Endpoint) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return out
}

func successResponse(op *openapi3.Operation) *openapi3.Response {
	if op.Responses == nil {
		return nil
	}
	for _, code := range []int{http.StatusOK, http.StatusCreated, http.StatusAccepted} {
		if ref := op.Responses.Status(code); ref != nil && ref.Value != nil {
			return ref.Value
		}
	}
	return nil
}

// properties flattens an object schema in declaration-independent name order.
func properties(ref *openapi3.SchemaRef) []Field {
	if ref == nil || ref.Value == nil {
		return nil
	}
	s := ref.Value
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	slices.Sort(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		prop := s.Properties[name]
		f := Field{
			Name:     name,
			Type:     schemaType(prop),
			Required: slices.Contains(s.Required, name),
			Enum:     enumValues(prop),
		}
		if prop != nil && prop.Value != nil {
			f.Description = prop.Value.Description
		}
		fields = append(fields, f)
	}
	return fields
}

func schemaType(ref *openapi3.SchemaRef) string {
	if ref == nil || ref.Value == nil || ref.Value.Type == nil || len(*ref.Value.Type) == 0 {
		return ""
	}
	s := ref.Value
	if s.Format == "binary" {
		return "file"
	}
	t := (*s.Type)[0]
	if t == openapi3.TypeArray && s.Items != nil {
		if s.Items.Ref != "" {
			return s.Items.Ref[strings.LastIndex(s.Items.Ref, "/")+1:] + "[]"
		}
		if inner := schemaType(s.Items); inner != "" {
			return inner + "[]"
		}
	}
	return t
}

func enumValues(ref *openapi3.SchemaRef) []string {
	if ref == nil || ref.Value == nil {
		return nil
	}
	var out []string
	for _, v := range ref.Value.Enum {
		out = append(out, fmt.Sprint(v))
	}
	return out
}
