package series

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/series.schema.json
var seriesSchema []byte

// Document is the JSON form of a series.
type Document struct {
	Name   string          `json:"name,omitempty"`
	Points []DocumentPoint `json:"points"`
}

// DocumentPoint is one point of a Document.
type DocumentPoint struct {
	Time  string  `json:"time,omitempty"`
	Value float64 `json:"value"`
}

// Schema returns the JSON schema series documents are validated against.
func Schema() []byte {
	return bytes.Clone(seriesSchema)
}

// ReadJSON decodes and validates a series document.
func ReadJSON(r io.Reader) (Series, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Series{}, fmt.Errorf("read series: %w", err)
	}

	err = validateDocument(raw)
	if err != nil {
		return Series{}, err
	}

	var doc Document

	err = json.Unmarshal(raw, &doc)
	if err != nil {
		return Series{}, fmt.Errorf("decode series: %w", err)
	}

	return doc.Series()
}

// Series converts the document. Labels are kept only when every point has one.
func (d Document) Series() (Series, error) {
	values := make([]float64, len(d.Points))
	labels := make([]string, len(d.Points))
	labeled := len(d.Points) > 0

	for i, p := range d.Points {
		values[i] = p.Value
		labels[i] = p.Time
		labeled = labeled && p.Time != ""
	}

	if !labeled {
		labels = nil
	}

	return New(d.Name, labels, values)
}

// NewDocument converts s into its JSON form.
func NewDocument(s Series) Document {
	doc := Document{Name: s.Name, Points: make([]DocumentPoint, s.Len())}

	for i, v := range s.Values {
		doc.Points[i] = DocumentPoint{Value: v}
		if len(s.Labels) > 0 {
			doc.Points[i].Time = s.Labels[i]
		}
	}

	return doc
}

func validateDocument(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(seriesSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}
