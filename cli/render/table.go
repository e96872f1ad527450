package render

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

// column is one table column taken from a struct field or map key.
type column struct {
	name      string
	index     int
	omitEmpty bool
}

// renderTable prints a slice as rows under a header line, and anything else
// as name/value pairs. Fields tagged omitempty are left out when zero, as
// in JSON output.
func (r *Renderer) renderTable(data any) error {
	v := indirect(reflect.ValueOf(data))
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		if v.Len() == 0 {
			fmt.Fprintln(w, "(no results)")
			return nil
		}
		cols := columnsOf(indirect(v.Index(0)))
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.name
		}
		fmt.Fprintln(w, r.header(strings.Join(names, "\t")))
		for i := 0; i < v.Len(); i++ {
			row := indirect(v.Index(i))
			cells := make([]string, len(cols))
			for j, c := range cols {
				cells[j] = formatValue(cellOf(row, c))
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		return nil
	}

	cols := columnsOf(v)
	if cols == nil {
		fmt.Fprintf(w, "%v\n", data)
		return nil
	}
	for _, c := range cols {
		cell := cellOf(v, c)
		if c.omitEmpty && (!cell.IsValid() || cell.IsZero()) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", r.header(c.name+":"), formatValue(cell))
	}
	return nil
}

func (r *Renderer) header(s string) string {
	if r.noColor {
		return s
	}
	return headerStyle.Render(s)
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

// columnsOf lists exported struct fields in order, or sorted map keys.
// Other kinds have no columns.
func columnsOf(v reflect.Value) []column {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		var cols []column
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, omit, skip := jsonName(f)
			if skip {
				continue
			}
			cols = append(cols, column{name: name, index: i, omitEmpty: omit})
		}
		return cols
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, fmt.Sprint(k.Interface()))
		}
		sort.Strings(keys)
		cols := make([]column, len(keys))
		for i, k := range keys {
			cols[i] = column{name: k, index: -1}
		}
		return cols
	default:
		return nil
	}
}

func cellOf(v reflect.Value, c column) reflect.Value {
	switch {
	case v.Kind() == reflect.Struct && c.index >= 0:
		return v.Field(c.index)
	case v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String:
		return v.MapIndex(reflect.ValueOf(c.name).Convert(v.Type().Key()))
	default:
		return reflect.Value{}
	}
}

// jsonName returns the column name from the json tag, falling back to the
// lowercased field name.
func jsonName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	return name, strings.Contains(opts, "omitempty"), false
}

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	v = indirect(v)
	if (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil() {
		return ""
	}

	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', 3, 64)
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		if t, ok := v.Interface().(time.Time); ok {
			return t.Format(time.RFC3339)
		}
		return "{...}"
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
