package magnet

import (
	"fmt"
	"strings"

	spec "github.com/getkin/kin-openapi/openapi3"
)

// GenerateOpenAPI describes services as an OpenAPI 3 document. Every method
// becomes an operation with ID "Service.Method"; Path and Query parameters
// become OpenAPI parameters, Body, FormMap and Part parameters become the
// request body. HeaderMap parameters are dynamic and are not described.
func GenerateOpenAPI(title, version string, services ...*Service) (*spec.T, error) {
	doc := &spec.T{
		OpenAPI: "3.0.0",
		Info: &spec.Info{
			Title:   title,
			Version: version,
		},
		Paths: spec.NewPaths(),
	}

	for _, s := range services {
		if err := validateService(s); err != nil {
			return nil, err
		}
		for _, m := range s.Methods {
			key := MethodKey{Service: s.Name, Method: m.Name}
			desc, err := compileMethod(key, "", DefaultCodec, m)
			if err != nil {
				return nil, err
			}
			if desc.verb == "" {
				return nil, fmt.Errorf("method %s has no HTTP verb", key)
			}
			path := stripSpaces(desc.pathTemplate)
			if i := strings.IndexByte(path, '?'); i >= 0 {
				path = path[:i]
			}

			op := spec.NewOperation()
			op.OperationID = key.String()
			op.Tags = []string{s.Name}
			for i, p := range m.Params {
				addOpenAPIParam(op, p, desc.binders[i])
			}
			op.AddResponse(200, spec.NewResponse().WithDescription("Successful response"))

			item := doc.Paths.Value(path)
			if item == nil {
				item = &spec.PathItem{}
				doc.Paths.Set(path, item)
			}
			if item.GetOperation(desc.verb) != nil {
				return nil, fmt.Errorf("method %s: %s %s is declared twice", key, desc.verb, path)
			}
			item.SetOperation(desc.verb, op)
		}
	}

	return doc, nil
}

func addOpenAPIParam(op *spec.Operation, p ParamDecl, b binder) {
	switch b := b.(type) {
	case pathBinder:
		op.AddParameter(spec.NewPathParameter(b.name).WithSchema(schemaOf(p.Type)))
	case queryBinder:
		op.AddParameter(spec.NewQueryParameter(b.name).WithSchema(schemaOf(p.Type)))
	case bodyBinder:
		setRequestBody(op, DefaultCodec.ContentType(), spec.NewObjectSchema())
	case formMapBinder:
		setRequestBody(op, "application/x-www-form-urlencoded", spec.NewObjectSchema())
	case partBinder:
		setRequestBody(op, "multipart/form-data", spec.NewObjectSchema())
	case headerMapBinder:
	}
}

func setRequestBody(op *spec.Operation, contentType string, schema *spec.Schema) {
	op.RequestBody = &spec.RequestBodyRef{
		Value: spec.NewRequestBody().WithContent(spec.NewContentWithSchema(schema, []string{contentType})),
	}
}

// schemaOf maps a Go type expression of a parameter to a schema.
func schemaOf(goType string) *spec.Schema {
	switch strings.TrimPrefix(goType, "*") {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
		return spec.NewIntegerSchema()
	case "float32", "float64":
		return spec.NewFloat64Schema()
	case "bool":
		return spec.NewBoolSchema()
	}
	return spec.NewStringSchema()
}
