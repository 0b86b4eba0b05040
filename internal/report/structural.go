package report

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"buscontrol/internal/domain"
)

// Fixed values of structural exports.
const (
	Namespace     = "http://buscontrol.example.com/rutas"
	SystemLabel   = "Control de Buses v1.0"
	CompanyName   = "Transporte Urbano S.A."
	ReportPeriod  = "Diario"
	Currency      = "USD"
	DateFormatTag = "ISO8601"
)

// Element is a node of an explicitly built XML tree.
type Element struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Text     string
	Children []*Element
	parent   *Element
}

// NewElement creates a detached element.
func NewElement(name string) *Element {
	return &Element{Name: xml.Name{Local: name}}
}

// Ele appends a child element and returns it.
func (e *Element) Ele(name string) *Element {
	child := &Element{Name: xml.Name{Local: name}, parent: e}
	e.Children = append(e.Children, child)
	return child
}

// Attr sets an attribute and returns e.
func (e *Element) Attr(name, value string) *Element {
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	return e
}

// Txt sets the text content and returns e.
func (e *Element) Txt(text string) *Element {
	e.Text = text
	return e
}

// Up returns the parent element, or e itself at the root.
func (e *Element) Up() *Element {
	if e.parent == nil {
		return e
	}
	return e.parent
}

// StructuralCodec builds the export tree element by element, choosing
// namespace, attributes and nesting explicitly.
type StructuralCodec struct {
	now func() time.Time
}

// NewStructuralCodec creates a StructuralCodec using the wall clock.
func NewStructuralCodec() *StructuralCodec {
	return &StructuralCodec{now: time.Now}
}

// Method returns MethodStructural.
func (c *StructuralCodec) Method() Method { return MethodStructural }

// Encode renders records as a namespaced ControlRutasBuses document.
func (c *StructuralCodec) Encode(records []domain.TripRecord) ([]byte, error) {
	root, err := c.Tree(records)
	if err != nil {
		return nil, err
	}
	return RenderTree(root)
}

// Tree builds the element tree for records. Each ruta carries its 1-based
// position in the input as the numero attribute.
func (c *StructuralCodec) Tree(records []domain.TripRecord) (*Element, error) {
	generated, err := FormatTimestamp(c.now())
	if err != nil {
		return nil, fmt.Errorf("structural export: generation time: %w", err)
	}

	root := NewElement(RootElement)
	root.Name.Space = Namespace
	root.Attr("fechaGeneracion", generated).
		Attr("totalRegistros", strconv.Itoa(len(records)))

	root.Ele("metadata").
		Ele("sistema").Txt(SystemLabel).Up().
		Ele("empresa").Txt(CompanyName).Up().
		Ele("periodo").Txt(ReportPeriod)

	rutas := root.Ele("rutas")
	for i := range records {
		f, err := formatRecord(MethodStructural, i, &records[i])
		if err != nil {
			return nil, err
		}

		ruta := rutas.Ele("ruta").
			Attr("id", f.ID).
			Attr("numero", strconv.Itoa(i+1))
		ruta.Ele("fechaSalida").Attr("formato", DateFormatTag).Txt(f.DepartureTime)
		ruta.Ele("ruta").Txt(f.RouteName)
		ruta.Ele("conductor").Txt(f.DriverName)
		ruta.Ele("cantidadDinero").Attr("moneda", Currency).Txt(f.Amount)
		ruta.Ele("observaciones").Txt(f.Notes)
		ruta.Ele("estado").Txt(f.Status)
	}

	return root, nil
}

// RenderTree writes the tree as an indented XML document with declaration.
func RenderTree(root *Element) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := writeElement(enc, root); err != nil {
		return nil, fmt.Errorf("render %s: %w", root.Name.Local, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render %s: %w", root.Name.Local, err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func writeElement(enc *xml.Encoder, e *Element) error {
	start := xml.StartElement{Name: e.Name, Attr: e.Attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return err
		}
	}
	for _, child := range e.Children {
		if err := writeElement(enc, child); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
