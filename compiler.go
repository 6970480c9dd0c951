package magnet

import (
	"regexp"

	"github.com/starius/magnet/errors"
)

const paramName = "[a-zA-Z][a-zA-Z0-9_-]*"

var paramURLRegexp = regexp.MustCompile(`\{(` + paramName + `)\}`)

// compileMethod turns a method declaration into a MethodDescriptor.
//
// Duplicate verb annotations on the method and duplicate role annotations
// on a parameter are not rejected: the last one scanned wins. A method
// without any verb annotation compiles with empty verb and template.
func compileMethod(key MethodKey, baseURL string, codec Codec, decl *MethodDecl) (*MethodDescriptor, error) {
	d := &MethodDescriptor{
		key:     key,
		baseURL: baseURL,
		codec:   codec,
	}

	for _, a := range decl.Annotations {
		if v, ok := a.(verb); ok {
			d.verb = v.method
			d.pathTemplate = v.path
			d.pathParams = parsePathParameters(v.path)
		}
	}

	d.binders = make([]binder, len(decl.Params))
	for i, p := range decl.Params {
		b, err := d.parseParameter(p)
		if err != nil {
			return nil, errors.InvalidArgument("method %s, parameter %d (%s): %w", key, i, p.Name, err)
		}
		d.binders[i] = b
	}

	return d, nil
}

func (d *MethodDescriptor) parseParameter(p ParamDecl) (binder, error) {
	var result binder
	for _, a := range p.Annotations {
		b, err := d.parseParameterAnnotation(a)
		if err != nil {
			return nil, err
		}
		result = b
	}
	if result == nil {
		return nil, errors.InvalidArgument("empty parameter")
	}
	return result, nil
}

func (d *MethodDescriptor) parseParameterAnnotation(a Annotation) (binder, error) {
	switch a := a.(type) {
	case queryAnnotation:
		return queryBinder{name: a.name}, nil
	case pathAnnotation:
		return pathBinder{name: a.name}, nil
	case bodyAnnotation:
		d.hasBody = true
		return bodyBinder{}, nil
	case headerMapAnnotation:
		d.hasExplicitHeaders = true
		return headerMapBinder{}, nil
	case formMapAnnotation:
		d.hasBody = true
		return formMapBinder{}, nil
	case partAnnotation:
		d.hasBody = true
		d.hasMultipart = true
		return partBinder{}, nil
	}
	return nil, errors.InvalidArgument("unrecognized parameter annotation %q", annotationText(a))
}

func annotationText(a Annotation) string {
	if a == nil {
		return "<nil>"
	}
	return a.String()
}

// parsePathParameters returns the names of {name} placeholders in the
// order they first appear, without duplicates.
func parsePathParameters(path string) []string {
	matches := paramURLRegexp.FindAllStringSubmatch(path, -1)
	seen := make(map[string]struct{}, len(matches))
	result := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, has := seen[name]; has {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}
