// Package response renders API payloads as JSON or XML depending on the
// client's Accept header. Success and error bodies go through the same path.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

const (
	// MediaTypeXML is the Accept token that switches the output to XML
	MediaTypeXML  = "application/xml"
	MediaTypeJSON = "application/json"

	rootElement = "response"
	itemElement = "item"
)

// WantsXML reports whether the request's Accept header asks for XML
func WantsXML(r *http.Request) bool {
	return strings.Contains(strings.Join(r.Header.Values("Accept"), ","), MediaTypeXML)
}

// Write encodes payload with status in the representation negotiated for r
func Write(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if WantsXML(r) {
		body, err := EncodeXML(payload)
		if err != nil {
			writeEncodeFailure(w, MediaTypeXML)
			return
		}
		w.Header().Set("Content-Type", MediaTypeXML)
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeEncodeFailure(w, MediaTypeJSON)
		return
	}
	w.Header().Set("Content-Type", MediaTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// Error writes the standard {"error": message} envelope
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	Write(w, r, status, map[string]any{"error": message})
}

// EncodeXML renders payload under a <response> root. Object keys become
// child elements, list entries become repeated <item> elements and null
// values become empty elements.
func EncodeXML(payload any) ([]byte, error) {
	generic, err := toGeneric(payload)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootElement)
	fill(root, generic)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write xml: %w", err)
	}
	return buf.Bytes(), nil
}

// toGeneric flattens structs and typed maps into maps, slices and scalars by
// round-tripping through the payload's JSON form, so both representations
// share field names.
func toGeneric(payload any) (any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return v, nil
}

func fill(el *etree.Element, v any) {
	switch val := v.(type) {
	case nil:
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fill(el.CreateElement(tagName(k)), val[k])
		}
	case []any:
		for _, item := range val {
			fill(el.CreateElement(itemElement), item)
		}
	case string:
		el.SetText(val)
	case json.Number:
		el.SetText(val.String())
	case bool:
		if val {
			el.SetText("true")
		} else {
			el.SetText("false")
		}
	default:
		el.SetText(fmt.Sprint(val))
	}
}

// tagName maps an object key to a valid XML element name
func tagName(key string) string {
	if key == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
			b.WriteRune(r)
		case i == 0 && unicode.IsDigit(r):
			b.WriteRune('_')
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func writeEncodeFailure(w http.ResponseWriter, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusInternalServerError)
	if contentType == MediaTypeXML {
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><response><error>Internal server error</error></response>`))
		return
	}
	_, _ = w.Write([]byte(`{"error":"Internal server error"}` + "\n"))
}
