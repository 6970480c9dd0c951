package magnet

import (
	"fmt"
	"net/http"
	"strings"
)

// Annotation is a piece of declarative metadata attached to a method or to
// one of its parameters. String returns the textual form accepted by
// ParseAnnotation.
type Annotation interface {
	String() string
}

// verb is a method annotation: HTTP method and relative path template.
type verb struct {
	method string
	path   string
}

func (v verb) String() string {
	return v.method + " " + v.path
}

// GET declares that the method issues a GET request to path.
func GET(path string) Annotation { return verb{method: http.MethodGet, path: path} }

// POST declares that the method issues a POST request to path.
func POST(path string) Annotation { return verb{method: http.MethodPost, path: path} }

// PUT declares that the method issues a PUT request to path.
func PUT(path string) Annotation { return verb{method: http.MethodPut, path: path} }

// DELETE declares that the method issues a DELETE request to path.
func DELETE(path string) Annotation { return verb{method: http.MethodDelete, path: path} }

type queryAnnotation struct{ name string }

func (a queryAnnotation) String() string { return "Query " + a.name }

type pathAnnotation struct{ name string }

func (a pathAnnotation) String() string { return "Path " + a.name }

type bodyAnnotation struct{}

func (bodyAnnotation) String() string { return "Body" }

type headerMapAnnotation struct{}

func (headerMapAnnotation) String() string { return "HeaderMap" }

type formMapAnnotation struct{}

func (formMapAnnotation) String() string { return "FormMap" }

type partAnnotation struct{}

func (partAnnotation) String() string { return "Part" }

// Query appends the argument to the query string as name=value.
func Query(name string) Annotation { return queryAnnotation{name: name} }

// Path substitutes the argument for the {name} placeholder of the path.
func Path(name string) Annotation { return pathAnnotation{name: name} }

// Body sends the argument encoded by the codec as the request body.
func Body() Annotation { return bodyAnnotation{} }

// HeaderMap adds every entry of the argument map as a request header.
func HeaderMap() Annotation { return headerMapAnnotation{} }

// FormMap appends every entry of the argument to the body as
// application/x-www-form-urlencoded fields.
func FormMap() Annotation { return formMapAnnotation{} }

// Part uploads the files of the argument as multipart/form-data.
func Part() Annotation { return partAnnotation{} }

// Unknown annotation, kept verbatim. The compiler skips it on methods
// and rejects it on parameters.
type opaqueAnnotation struct{ text string }

func (a opaqueAnnotation) String() string { return a.text }

// ParseAnnotation parses the textual form of an annotation, e.g.
// "GET /items/{id}", "Query q", "Path id", "Body", "HeaderMap",
// "FormMap" or "Part". Text that is not a known annotation is returned
// as an opaque annotation; only malformed known annotations fail.
func ParseAnnotation(text string) (Annotation, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty annotation")
	}
	head, args := fields[0], fields[1:]
	oneArg := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("annotation %q: want 1 argument, got %d", text, len(args))
		}
		return args[0], nil
	}
	noArgs := func(a Annotation) (Annotation, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("annotation %q: want no arguments, got %d", text, len(args))
		}
		return a, nil
	}

	switch head {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		// Whitespace inside the template is stripped by path binding anyway.
		path := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), head))
		if path == "" {
			return nil, fmt.Errorf("annotation %q: missing path", text)
		}
		return verb{method: head, path: path}, nil
	case "Query":
		name, err := oneArg()
		if err != nil {
			return nil, err
		}
		return Query(name), nil
	case "Path":
		name, err := oneArg()
		if err != nil {
			return nil, err
		}
		return Path(name), nil
	case "Body":
		return noArgs(Body())
	case "HeaderMap":
		return noArgs(HeaderMap())
	case "FormMap":
		return noArgs(FormMap())
	case "Part":
		return noArgs(Part())
	}
	return opaqueAnnotation{text: strings.TrimSpace(text)}, nil
}

// MustParseAnnotation is like ParseAnnotation but panics on error.
// It is used by generated adapters.
func MustParseAnnotation(text string) Annotation {
	a, err := ParseAnnotation(text)
	if err != nil {
		panic(err)
	}
	return a
}
