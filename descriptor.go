package magnet

import (
	"github.com/starius/magnet/errors"
)

// MethodDescriptor is the compiled, immutable form of a method declaration.
// It is built once per method by the client's dispatcher and shared by all
// calls of the method.
type MethodDescriptor struct {
	key          MethodKey
	baseURL      string
	pathTemplate string
	pathParams   []string
	verb         string
	codec        Codec

	hasBody            bool
	hasMultipart       bool
	hasExplicitHeaders bool

	binders []binder
}

// Key returns the service and method names the descriptor was compiled for.
func (d *MethodDescriptor) Key() MethodKey { return d.key }

// Verb returns the HTTP method, e.g. "GET".
func (d *MethodDescriptor) Verb() string { return d.verb }

// PathTemplate returns the relative path with {name} placeholders unbound.
func (d *MethodDescriptor) PathTemplate() string { return d.pathTemplate }

// PathParams returns placeholder names found in the path template.
// They are informational: path binders are not checked against them.
func (d *MethodDescriptor) PathParams() []string {
	return append([]string(nil), d.pathParams...)
}

// HasBody reports whether a Body, FormMap or Part parameter is declared.
func (d *MethodDescriptor) HasBody() bool { return d.hasBody }

// HasMultipart reports whether a Part parameter is declared.
func (d *MethodDescriptor) HasMultipart() bool { return d.hasMultipart }

// HasExplicitHeaders reports whether a HeaderMap parameter is declared.
func (d *MethodDescriptor) HasExplicitHeaders() bool { return d.hasExplicitHeaders }

// NumParams returns the number of declared parameters.
func (d *MethodDescriptor) NumParams() int { return len(d.binders) }

// toRequestSpec binds args, positionally, into a fresh RequestSpec.
func (d *MethodDescriptor) toRequestSpec(args []any) (*RequestSpec, error) {
	if len(args) != len(d.binders) {
		return nil, errors.InvalidArgument("method %s: argument count does not match: want %d, got %d", d.key, len(d.binders), len(args))
	}
	spec := newRequestSpec(d)
	for i, b := range d.binders {
		if err := b.bind(spec, args[i]); err != nil {
			return nil, errors.InvalidArgument("method %s, argument %d: %w", d.key, i, err)
		}
	}
	return spec, nil
}
