package rlog

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// Message is the value a producer yields: plain Text or a Structured record
type Message interface {
	String() string
}

// Text is a plain string message
type Text string

// String returns the text unchanged
func (t Text) String() string { return string(t) }

// Field is one key-value pair of a structured payload
type Field struct {
	Key   string
	Value any
}

// F builds a Field
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Fields is an ordered payload. Rendering keeps insertion order.
type Fields []Field

// Structured is a named record with an ordered payload
type Structured struct {
	Name    string
	Payload Fields
}

// NewStructured builds a Structured message from alternating keys and values.
// A trailing key without value is paired with nil, a non-string key is
// rendered with fmt.
func NewStructured(name string, keyvals ...any) Structured {
	s := Structured{Name: name}
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		var val any
		if i+1 < len(keyvals) {
			val = keyvals[i+1]
		}
		s.Payload = append(s.Payload, Field{Key: key, Value: val})
	}
	return s
}

// String renders the record as "<name>: <payload>"
func (s Structured) String() string {
	return s.Name + ": " + s.Payload.String()
}

// String renders the payload as "[k: v, k: v]"
func (f Fields) String() string {
	buf := make([]byte, 0, 64)
	buf = append(buf, '[')
	for i, field := range f {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		buf = append(buf, field.Key...)
		buf = append(buf, ": "...)
		buf = appendValue(buf, field.Value)
	}
	buf = append(buf, ']')
	return string(buf)
}

// payloadDumper renders composite payload values on a single line
var payloadDumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// appendValue writes the log representation of v.
// Types not handled explicitly are delegated to spew.
func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return strconv.AppendQuote(buf, val)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case int32:
		return strconv.AppendInt(buf, int64(val), 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(val), 10)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "nil"...)
	case time.Time:
		return val.AppendFormat(buf, time.RFC3339Nano)
	case time.Duration:
		return append(buf, val.String()...)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	default:
		var b bytes.Buffer
		payloadDumper.Fprintf(&b, "%v", val)
		return append(buf, bytes.TrimSpace(b.Bytes())...)
	}
}
