package magnet

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"unicode"
)

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyCodec
	bodyForm
)

// partFile is one file of a multipart upload. Either path is set and the
// file is opened at send time, or file is an already open file owned by
// the caller.
type partFile struct {
	path string
	file *os.File
}

func (p partFile) name() string {
	if p.file != nil {
		return p.file.Name()
	}
	return p.path
}

// RequestSpec accumulates the parts of one HTTP request while call
// arguments are bound. It is created per call and never shared.
type RequestSpec struct {
	baseURL     string
	relativeURL string
	method      string
	codec       Codec

	headers map[string]string
	body    string
	kind    bodyKind
	// Number of form fields appended to body by this call.
	formFields int
	parts      map[string]partFile

	hasBody            bool
	hasMultipart       bool
	hasExplicitHeaders bool
}

func newRequestSpec(d *MethodDescriptor) *RequestSpec {
	return &RequestSpec{
		baseURL:            d.baseURL,
		relativeURL:        d.pathTemplate,
		method:             d.verb,
		codec:              d.codec,
		headers:            make(map[string]string),
		parts:              make(map[string]partFile),
		hasBody:            d.hasBody,
		hasMultipart:       d.hasMultipart,
		hasExplicitHeaders: d.hasExplicitHeaders,
	}
}

// URL returns the effective URL: the relative URL itself if it is absolute,
// base URL + relative URL otherwise.
func (r *RequestSpec) URL() string {
	if strings.HasPrefix(r.relativeURL, "http") {
		return r.relativeURL
	}
	return r.baseURL + r.relativeURL
}

// Method returns the HTTP method of the request.
func (r *RequestSpec) Method() string { return r.method }

// RelativeURL returns the relative URL with bound path and query parameters.
func (r *RequestSpec) RelativeURL() string { return r.relativeURL }

// Header returns an explicitly set header.
func (r *RequestSpec) Header(name string) (string, bool) {
	v, has := r.headers[name]
	return v, has
}

// Body returns the accumulated body text.
func (r *RequestSpec) Body() string { return r.body }

func (r *RequestSpec) addQueryParam(name string, value *string) {
	sep := "&"
	if !strings.Contains(r.relativeURL, "?") {
		sep = "?"
	}
	encodedValue := ""
	if value != nil {
		encodedValue = encode(*value)
	}
	r.relativeURL += sep + encode(name) + "=" + encodedValue
}

func (r *RequestSpec) addPathParam(name string, value *string) error {
	encodedValue := ""
	if value != nil {
		encodedValue = encode(*value)
	}
	stripped := stripSpaces(r.relativeURL)
	placeholder := "{" + name + "}"
	if !strings.Contains(stripped, placeholder) {
		return fmt.Errorf("no such placeholder in relative url %q: %s", r.relativeURL, placeholder)
	}
	r.relativeURL = strings.Replace(stripped, placeholder, encodedValue, 1)
	return nil
}

func (r *RequestSpec) addHeader(name, value string) error {
	if value == "" {
		return fmt.Errorf("empty value passed for header %q", name)
	}
	r.headers[name] = value
	return nil
}

func (r *RequestSpec) setBody(body string) {
	r.body = body
	r.kind = bodyCodec
}

// addFormField appends name=value to the body. The separator is only put
// between form fields of this call, so a form following a Body argument is
// glued to it without "&".
func (r *RequestSpec) addFormField(name, value string) error {
	if name == "" {
		return fmt.Errorf("empty key passed inside form data")
	}
	if value == "" {
		return fmt.Errorf("empty value passed inside form data for key %q", name)
	}
	if r.formFields > 0 {
		r.body += "&"
	}
	r.body += encode(name) + "=" + encode(value)
	r.formFields++
	r.kind = bodyForm
	return nil
}

func (r *RequestSpec) setParts(parts map[string]partFile) error {
	if len(parts) == 0 {
		return fmt.Errorf("multipart does not contain any file")
	}
	r.parts = parts
	return nil
}

// encode percent-encodes s as UTF-8. Unreserved characters are kept, so
// encoding an already safe value is a no-op. Space becomes %20.
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
