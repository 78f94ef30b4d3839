// Package envelope builds the SOAP request payloads for each supported
// vim25 operation. Every operation has a typed parameter struct; all text
// and attribute values pass through XML escaping here, never by string
// interpolation at call sites.
package envelope

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/vtelemetry/vsphere_sdk/common"
)

const (
	envelopeOpen = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"` +
		` xmlns:xsd="http://www.w3.org/2001/XMLSchema"` +
		` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><soapenv:Body>`
	envelopeClose = `</soapenv:Body></soapenv:Envelope>`

	vimNamespaceAttr = ` xmlns="urn:vim25"`
)

// Request is one buildable vim25 operation
type Request interface {
	// Operation returns the operation name used for the request root tag
	// and for locating the <Operation>Response element in the reply
	Operation() string

	writeBody(w *writer)
}

// Build wraps a request body in the SOAP envelope and returns the complete
// wire payload
func Build(req Request) []byte {
	w := &writer{}
	w.buf.WriteString(envelopeOpen)
	w.openRaw(req.Operation(), vimNamespaceAttr)
	req.writeBody(w)
	w.close(req.Operation())
	w.buf.WriteString(envelopeClose)
	return w.buf.Bytes()
}

// writer assembles escaped XML fragments
type writer struct {
	buf bytes.Buffer
}

// openRaw writes a start tag with pre-built raw attribute text
func (w *writer) openRaw(name, rawAttrs string) {
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	w.buf.WriteString(rawAttrs)
	w.buf.WriteByte('>')
}

func (w *writer) open(name string) {
	w.openRaw(name, "")
}

func (w *writer) close(name string) {
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteByte('>')
}

// text writes escaped character data
func (w *writer) text(s string) {
	// EscapeText only fails on a failing underlying writer; bytes.Buffer
	// never fails
	_ = xml.EscapeText(&w.buf, []byte(s))
}

// elem writes <name>text</name> with escaped text
func (w *writer) elem(name, text string) {
	w.open(name)
	w.text(text)
	w.close(name)
}

// elemInt writes <name>n</name>
func (w *writer) elemInt(name string, n int64) {
	w.open(name)
	w.buf.WriteString(strconv.FormatInt(n, 10))
	w.close(name)
}

// elemBool writes <name>true|false</name>
func (w *writer) elemBool(name string, b bool) {
	w.open(name)
	w.buf.WriteString(strconv.FormatBool(b))
	w.close(name)
}

// ref writes <name type="Kind">value</name> with both parts escaped
func (w *writer) ref(name string, r common.ObjectRef) {
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	w.buf.WriteString(` type="`)
	w.text(r.Kind)
	w.buf.WriteString(`">`)
	w.text(r.Value)
	w.close(name)
}
