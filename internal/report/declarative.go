package report

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"buscontrol/internal/domain"
)

// GeneratorLabel identifies the producer in declarative exports.
const GeneratorLabel = "Sistema de Control de Buses v1.0"

// Field is one key/value pair of a Mapping.
type Field struct {
	Key   string
	Value any
}

// Mapping is an ordered object. Values may be string, int, Mapping or List.
type Mapping []Field

// List is a repeated value; each item becomes a sibling element named after
// the key that holds the list.
type List []any

// DeclarativeCodec builds a generic Mapping from the records and hands it to
// RenderMapping. It has no control over attributes: every key is an element.
type DeclarativeCodec struct {
	now func() time.Time
}

// NewDeclarativeCodec creates a DeclarativeCodec using the wall clock.
func NewDeclarativeCodec() *DeclarativeCodec {
	return &DeclarativeCodec{now: time.Now}
}

// Method returns MethodDeclarative.
func (c *DeclarativeCodec) Method() Method { return MethodDeclarative }

// Encode renders records as a ControlRutasBuses document.
func (c *DeclarativeCodec) Encode(records []domain.TripRecord) ([]byte, error) {
	doc, err := c.Mapping(records)
	if err != nil {
		return nil, err
	}
	return RenderMapping(RootElement, doc)
}

// Mapping returns the intermediate representation of records.
func (c *DeclarativeCodec) Mapping(records []domain.TripRecord) (Mapping, error) {
	generated, err := FormatTimestamp(c.now())
	if err != nil {
		return nil, fmt.Errorf("declarative export: generation time: %w", err)
	}

	routes := make(List, 0, len(records))
	for i := range records {
		f, err := formatRecord(MethodDeclarative, i, &records[i])
		if err != nil {
			return nil, err
		}
		routes = append(routes, Mapping{
			{"id", f.ID},
			{"fechaSalida", f.DepartureTime},
			{"ruta", f.RouteName},
			{"conductor", f.DriverName},
			{"cantidadDinero", f.Amount},
			{"observaciones", f.Notes},
			{"estado", f.Status},
			{"timestamps", Mapping{
				{"createdAt", f.CreatedAt},
				{"updatedAt", f.UpdatedAt},
			}},
		})
	}

	return Mapping{
		{"metadata", Mapping{
			{"fechaGeneracion", generated},
			{"totalRegistros", len(records)},
			{"generadoPor", GeneratorLabel},
		}},
		{"rutas", Mapping{
			{"ruta", routes},
		}},
	}, nil
}

// RenderMapping turns a Mapping into an indented XML document. Keys become
// element names, nested mappings become child elements, lists become
// repeated siblings and scalars become text content.
func RenderMapping(root string, m Mapping) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := encodeValue(enc, root, m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render %s: %w", root, err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func encodeValue(enc *xml.Encoder, name string, value any) error {
	switch v := value.(type) {
	case List:
		for _, item := range v {
			if err := encodeValue(enc, name, item); err != nil {
				return err
			}
		}
		return nil
	case Mapping:
		start := xml.StartElement{Name: xml.Name{Local: name}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, f := range v {
			if err := encodeValue(enc, f.Key, f.Value); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	case string:
		return encodeText(enc, name, v)
	case int:
		return encodeText(enc, name, strconv.Itoa(v))
	case int64:
		return encodeText(enc, name, strconv.FormatInt(v, 10))
	case fmt.Stringer:
		return encodeText(enc, name, v.String())
	default:
		return fmt.Errorf("render %s: unsupported value type %T", name, value)
	}
}

func encodeText(enc *xml.Encoder, name, text string) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(text)); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}
