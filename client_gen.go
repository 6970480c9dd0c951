package magnet

import (
	"bytes"
	"fmt"
	"go/token"
	"text/template"

	"golang.org/x/tools/imports"
)

const adapterTemplate = `// Code generated by magnetgen. DO NOT EDIT.

package {{.Package}}

import "github.com/starius/magnet"
{{range .Services}}
// {{.Name}}API declares the {{.Name}} service.
var {{.Name}}API = &magnet.Service{
	Name: {{printf "%q" .Name}},
	Methods: []*magnet.MethodDecl{
{{- range .Methods}}
		magnet.Method({{printf "%q" .Name}},
			[]magnet.Annotation{ {{- range $i, $a := .Annotations}}{{if $i}}, {{end}}{{annotationExpr $a}}{{end -}} },
{{- range .Params}}
			magnet.Param({{printf "%q" .Name}}, {{printf "%q" .Type}}{{range .Annotations}}, {{annotationExpr .}}{{end}}),
{{- end}}
		),
{{- end}}
	},
}

// {{.Name}}Client calls methods of the {{.Name}} service.
type {{.Name}}Client struct {
	stub *magnet.Stub
}

// New{{.Name}}Client compiles the {{.Name}} service for client.
func New{{.Name}}Client(client *magnet.Client) (*{{.Name}}Client, error) {
	stub, err := client.Create({{.Name}}API)
	if err != nil {
		return nil, err
	}
	return &{{.Name}}Client{stub: stub}, nil
}
{{$service := .Name}}
{{- range .Methods}}
func (c *{{$service}}Client) {{.Name}}({{signature .}}) *magnet.Call {
	return c.stub.Invoke({{printf "%q" .Name}}{{arguments .}})
}
{{end}}
{{- end}}`

var adapterTmpl = template.Must(template.New("adapter").Funcs(template.FuncMap{
	"annotationExpr": annotationExpr,
	"signature":      signature,
	"arguments":      arguments,
}).Parse(adapterTemplate))

// GenerateAdapter returns Go source of package pkg declaring, for every
// service, the service variable <Name>API and a typed adapter <Name>Client
// with one method per declared method. Parameter types come from
// ParamDecl.Type; imports they need are added.
func GenerateAdapter(pkg string, services ...*Service) ([]byte, error) {
	for _, s := range services {
		if err := validateService(s); err != nil {
			return nil, err
		}
		if !token.IsIdentifier(s.Name) {
			return nil, fmt.Errorf("service name %q is not a Go identifier", s.Name)
		}
		for _, m := range s.Methods {
			if !token.IsExported(m.Name) || !token.IsIdentifier(m.Name) {
				return nil, fmt.Errorf("method name %s.%s is not an exported Go identifier", s.Name, m.Name)
			}
			if _, err := compileMethod(MethodKey{Service: s.Name, Method: m.Name}, "", DefaultCodec, m); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	data := struct {
		Package  string
		Services []*Service
	}{
		Package:  pkg,
		Services: services,
	}
	if err := adapterTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	src, err := imports.Process(pkg+"_magnet.go", buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w\n%s", err, buf.String())
	}
	return src, nil
}

func annotationExpr(a Annotation) string {
	switch a := a.(type) {
	case verb:
		return fmt.Sprintf("magnet.%s(%q)", a.method, a.path)
	case queryAnnotation:
		return fmt.Sprintf("magnet.Query(%q)", a.name)
	case pathAnnotation:
		return fmt.Sprintf("magnet.Path(%q)", a.name)
	case bodyAnnotation:
		return "magnet.Body()"
	case headerMapAnnotation:
		return "magnet.HeaderMap()"
	case formMapAnnotation:
		return "magnet.FormMap()"
	case partAnnotation:
		return "magnet.Part()"
	}
	return fmt.Sprintf("magnet.MustParseAnnotation(%q)", annotationText(a))
}

// paramIdents returns unique Go identifiers for the parameters of m.
func paramIdents(m *MethodDecl) []string {
	idents := make([]string, len(m.Params))
	seen := make(map[string]struct{}, len(m.Params))
	for i, p := range m.Params {
		ident := p.Name
		_, dup := seen[ident]
		// "c" is the receiver.
		if !token.IsIdentifier(ident) || ident == "c" || dup {
			ident = fmt.Sprintf("arg%d", i)
		}
		seen[ident] = struct{}{}
		idents[i] = ident
	}
	return idents
}

func signature(m *MethodDecl) string {
	var buf bytes.Buffer
	for i, ident := range paramIdents(m) {
		if i != 0 {
			buf.WriteString(", ")
		}
		typ := m.Params[i].Type
		if typ == "" {
			typ = "any"
		}
		fmt.Fprintf(&buf, "%s %s", ident, typ)
	}
	return buf.String()
}

func arguments(m *MethodDecl) string {
	var buf bytes.Buffer
	for _, ident := range paramIdents(m) {
		fmt.Fprintf(&buf, ", %s", ident)
	}
	return buf.String()
}
