// Package output renders command results as an aligned table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v2"
)

// Format is an output format name.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Table is tabular data. Value is what JSON and YAML render instead of the
// cells; when nil they render the rows as a list of header-keyed maps.
type Table struct {
	Headers []string
	Rows    [][]string
	Footer  string
	Value   any
}

// Printer writes results in one format.
type Printer struct {
	w      io.Writer
	format Format
}

// New returns a Printer. Unknown formats fall back to table.
func New(w io.Writer, format string) *Printer {
	f := Format(strings.ToLower(strings.TrimSpace(format)))
	switch f {
	case FormatJSON, FormatYAML:
	default:
		f = FormatTable
	}
	return &Printer{w: w, format: f}
}

// Format returns the effective format.
func (p *Printer) Format() Format { return p.format }

// Table prints t.
func (p *Printer) Table(t Table) error {
	switch p.format {
	case FormatJSON, FormatYAML:
		if t.Value != nil {
			return p.Value(t.Value)
		}
		return p.Value(t.records())
	}
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(p.w, "No data found")
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	sep := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		sep[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))
	for _, r := range t.Rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if t.Footer != "" {
		_, err := fmt.Fprintln(p.w, t.Footer)
		return err
	}
	return nil
}

func (t Table) records() []yaml.MapSlice {
	out := make([]yaml.MapSlice, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(yaml.MapSlice, 0, len(t.Headers))
		for i, h := range t.Headers {
			v := ""
			if i < len(r) {
				v = r[i]
			}
			rec = append(rec, yaml.MapItem{Key: strings.ToLower(h), Value: v})
		}
		out = append(out, rec)
	}
	return out
}

// Value prints v as JSON or YAML. In table mode it prints v with %v
// unless v is a string.
func (p *Printer) Value(v any) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonable(v))
	case FormatYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = p.w.Write(b)
		return err
	}
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(p.w, s)
		return err
	}
	_, err := fmt.Fprintf(p.w, "%v\n", v)
	return err
}

// Message prints a one-line notice. JSON and YAML wrap it as {message}.
func (p *Printer) Message(msg string) error {
	if p.format == FormatTable {
		_, err := fmt.Fprintln(p.w, msg)
		return err
	}
	return p.Value(yaml.MapSlice{{Key: "message", Value: msg}})
}

// jsonable converts yaml.MapSlice values, which encoding/json would print
// as arrays of pairs, into ordered JSON objects.
func jsonable(v any) any {
	switch x := v.(type) {
	case yaml.MapSlice:
		return orderedObject(x)
	case []yaml.MapSlice:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = orderedObject(m)
		}
		return out
	}
	return v
}

type orderedObject yaml.MapSlice

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, it := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(fmt.Sprint(it.Key))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(jsonable(it.Value))
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
