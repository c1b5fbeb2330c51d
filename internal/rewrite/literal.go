package rewrite

import (
	"bytes"
	"encoding/json"
)

// jsString encodes s as a JavaScript string literal. HTML escaping is off
// so the literal reads the same as JSON.stringify output.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// strings always encode
		panic(err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// ResolvedLiteral is an already-resolved promise carrying text.
func ResolvedLiteral(text string) string {
	return "Promise.resolve(" + jsString(text) + ")"
}

// RejectedLiteral is an already-rejected promise whose Error message is msg.
// The failure surfaces only when the artifact evaluates the call site.
func RejectedLiteral(msg string) string {
	return "Promise.reject(Error(" + jsString(msg) + "))"
}
