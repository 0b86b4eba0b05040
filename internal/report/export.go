package report

import (
	"fmt"
	"time"

	"buscontrol/internal/domain"
)

// RootElement is the document element of both XML exports.
const RootElement = "ControlRutasBuses"

// ContentTypeXML is the media type of XML exports.
const ContentTypeXML = "application/xml"

// Method selects an XML serialization strategy.
type Method string

const (
	// MethodDeclarative maps records to a generic Mapping and renders it by rule.
	MethodDeclarative Method = "declarative"
	// MethodStructural builds the element tree explicitly.
	MethodStructural Method = "structural"
	// MethodSpreadsheet labels spreadsheet exports; it has no XML codec.
	MethodSpreadsheet Method = "xlsx"
)

// ParseMethod resolves a method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodDeclarative, MethodStructural:
		return Method(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Filename returns the suggested download name for a method.
func (m Method) Filename() string {
	switch m {
	case MethodDeclarative:
		return "rutas_buses_metodo1.xml"
	case MethodStructural:
		return "rutas_buses_metodo2.xml"
	case MethodSpreadsheet:
		return SpreadsheetFilename
	}
	return "rutas_buses.xml"
}

// Codec converts a record snapshot into an XML document.
type Codec interface {
	Method() Method
	Encode(records []domain.TripRecord) ([]byte, error)
}

// Ensure codecs implement Codec.
var (
	_ Codec = (*DeclarativeCodec)(nil)
	_ Codec = (*StructuralCodec)(nil)
)

// Exporter exposes both codecs over the same input. Records must already be
// filtered to active and sorted by departure time descending; the exporter
// never reorders them.
type Exporter struct {
	declarative *DeclarativeCodec
	structural  *StructuralCodec
}

// NewExporter creates an Exporter using the wall clock.
func NewExporter() *Exporter {
	return NewExporterWithClock(time.Now)
}

// NewExporterWithClock creates an Exporter whose generation timestamps come
// from now.
func NewExporterWithClock(now func() time.Time) *Exporter {
	return &Exporter{
		declarative: &DeclarativeCodec{now: now},
		structural:  &StructuralCodec{now: now},
	}
}

// EncodeDeclarative renders records with the declarative codec.
func (e *Exporter) EncodeDeclarative(records []domain.TripRecord) ([]byte, error) {
	return e.declarative.Encode(records)
}

// EncodeStructural renders records with the structural codec.
func (e *Exporter) EncodeStructural(records []domain.TripRecord) ([]byte, error) {
	return e.structural.Encode(records)
}

// Encode renders records with the codec for method.
func (e *Exporter) Encode(method Method, records []domain.TripRecord) ([]byte, error) {
	codec, err := e.Codec(method)
	if err != nil {
		return nil, err
	}
	return codec.Encode(records)
}

// Codec returns the codec registered for method.
func (e *Exporter) Codec(method Method) (Codec, error) {
	switch method {
	case MethodDeclarative:
		return e.declarative, nil
	case MethodStructural:
		return e.structural, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}
