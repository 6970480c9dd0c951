package magnet

import (
	"fmt"
)

// Service is a declarative interface: a named set of methods with no
// implementation. A Client turns it into a Stub that issues HTTP requests.
type Service struct {
	// Name of the service, used in method identities and generated code.
	Name string

	// Methods in declaration order.
	Methods []*MethodDecl
}

// MethodDecl describes one method of a declarative interface.
type MethodDecl struct {
	// Name of the method, unique within the service.
	Name string

	// Method level annotations. Exactly one of GET, POST, PUT, DELETE
	// is expected; other annotations are ignored.
	Annotations []Annotation

	// Params in positional order. Argument i of a call is bound by Params[i].
	Params []ParamDecl
}

// ParamDecl describes one parameter of a method.
type ParamDecl struct {
	// Name of the parameter. Optional, used in generated code and docs.
	Name string

	// Type is a Go type expression used by generated adapters, e.g. "int"
	// or "map[string]string". Empty means "any".
	Type string

	// Role annotation. Exactly one of Query, Path, Body, HeaderMap,
	// FormMap, Part is expected.
	Annotations []Annotation
}

// MethodKey identifies a declared method.
type MethodKey struct {
	Service string
	Method  string
}

func (k MethodKey) String() string {
	return k.Service + "." + k.Method
}

// Method builds a method declaration. Annotations are method level ones,
// params are built by Param.
func Method(name string, annotations []Annotation, params ...ParamDecl) *MethodDecl {
	return &MethodDecl{
		Name:        name,
		Annotations: annotations,
		Params:      params,
	}
}

// Param builds a parameter declaration.
func Param(name, typ string, annotations ...Annotation) ParamDecl {
	return ParamDecl{
		Name:        name,
		Type:        typ,
		Annotations: annotations,
	}
}

// validateService checks the parts of a service the method compiler does
// not look at: names must be present and method names unique.
func validateService(s *Service) error {
	if s == nil {
		return fmt.Errorf("service is nil")
	}
	if s.Name == "" {
		return fmt.Errorf("service name is empty")
	}
	seen := make(map[string]struct{}, len(s.Methods))
	for i, m := range s.Methods {
		if m == nil {
			return fmt.Errorf("service %s: method %d is nil", s.Name, i)
		}
		if m.Name == "" {
			return fmt.Errorf("service %s: method %d has no name", s.Name, i)
		}
		if _, has := seen[m.Name]; has {
			return fmt.Errorf("service %s: method %s is declared twice", s.Name, m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}
