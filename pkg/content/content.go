// Package content ships the built-in curriculum and the YAML document format
// used for hand-written event files.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

//go:embed sample.yaml
var sampleYAML []byte

// Document is the top-level shape of a YAML event file.
type Document struct {
	Events []model.Event `yaml:"events"`
}

// Decode reads a YAML event document. Events are normalized but not
// validated; an empty document yields no events.
func Decode(r io.Reader) ([]model.Event, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding event document: %w", err)
	}
	for i := range doc.Events {
		doc.Events[i].Normalize()
	}
	return doc.Events, nil
}

// Encode writes events as a YAML event document.
func Encode(w io.Writer, events []model.Event) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Events: events}); err != nil {
		return fmt.Errorf("encoding event document: %w", err)
	}
	return enc.Close()
}

// Sample returns a fresh copy of the built-in curriculum.
func Sample() ([]model.Event, error) {
	return Decode(bytes.NewReader(sampleYAML))
}

// MustSample is Sample for callers that treat a broken embed as fatal.
func MustSample() []model.Event {
	events, err := Sample()
	if err != nil {
		panic(err)
	}
	return events
}

// SampleBytes returns the raw embedded document.
func SampleBytes() []byte {
	return bytes.Clone(sampleYAML)
}
