package magnet

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAML form of services, as read by LoadServices:
//
//	services:
//	  - name: Items
//	    methods:
//	      - name: GetItem
//	        annotations: ["GET /items/{id}"]
//	        params:
//	          - name: id
//	            type: int
//	            annotations: ["Path id"]
type yamlServices struct {
	Services []yamlService `yaml:"services"`
}

type yamlService struct {
	Name    string       `yaml:"name"`
	Methods []yamlMethod `yaml:"methods"`
}

type yamlMethod struct {
	Name        string      `yaml:"name"`
	Annotations []string    `yaml:"annotations"`
	Params      []yamlParam `yaml:"params"`
}

type yamlParam struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Annotations []string `yaml:"annotations"`
}

// LoadServices reads service declarations in YAML form.
// Annotations use the syntax of ParseAnnotation.
func LoadServices(r io.Reader) ([]*Service, error) {
	var doc yamlServices
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}

	services := make([]*Service, 0, len(doc.Services))
	for _, ys := range doc.Services {
		s := &Service{Name: ys.Name}
		for _, ym := range ys.Methods {
			annotations, err := parseAnnotations(ym.Annotations)
			if err != nil {
				return nil, fmt.Errorf("method %s.%s: %w", ys.Name, ym.Name, err)
			}
			m := &MethodDecl{
				Name:        ym.Name,
				Annotations: annotations,
			}
			for _, yp := range ym.Params {
				annotations, err := parseAnnotations(yp.Annotations)
				if err != nil {
					return nil, fmt.Errorf("method %s.%s, parameter %s: %w", ys.Name, ym.Name, yp.Name, err)
				}
				m.Params = append(m.Params, Param(yp.Name, yp.Type, annotations...))
			}
			s.Methods = append(s.Methods, m)
		}
		if err := validateService(s); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, nil
}

func parseAnnotations(texts []string) ([]Annotation, error) {
	result := make([]Annotation, 0, len(texts))
	for _, text := range texts {
		a, err := ParseAnnotation(text)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}
