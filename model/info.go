// Package model loads model information documents describing the nominal
// types a CQL library can retrieve and reference.
package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Info is the serialized form of a model.  Type specifiers are written in
// CQL syntax, e.g., "List<System.Code>" or "Interval<DateTime>".
// Unqualified names resolve in the model's namespace and then in System.
type Info struct {
	Name         string           `yaml:"name"`
	Version      string           `yaml:"version"`
	URL          string           `yaml:"url"`
	PatientClass string           `yaml:"patientClass"`
	BirthDate    string           `yaml:"patientBirthDatePropertyName"`
	Types        []TypeInfo       `yaml:"types"`
	Conversions  []ConversionInfo `yaml:"conversions"`
}

type TypeInfo struct {
	Name            string         `yaml:"name"`
	Base            string         `yaml:"base"`
	Retrievable     bool           `yaml:"retrievable"`
	PrimaryCodePath string         `yaml:"primaryCodePath"`
	Properties      []PropertyInfo `yaml:"properties"`
}

type PropertyInfo struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Prohibited bool   `yaml:"prohibited"`
}

// ConversionInfo declares an implicit conversion implemented by a function
// in a helper library, e.g., FHIRHelpers.ToString.
type ConversionInfo struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Function string `yaml:"function"`
}

func ParseInfo(b []byte) (*Info, error) {
	var info Info
	if err := yaml.Unmarshal(b, &info); err != nil {
		return nil, err
	}
	if info.Name == "" {
		return nil, fmt.Errorf("model information is missing a name")
	}
	return &info, nil
}
