package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatText:
		return writeText(w, v)
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

// writeText prints one "key<TAB>value" row per top-level field. Lists of
// objects become one row per item. The success flag is dropped.
func writeText(w io.Writer, v any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	m, ok := v.(map[string]any)
	if !ok {
		fmt.Fprintln(tw, scalar(v))
		return tw.Flush()
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "success" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch val := m[k].(type) {
		case []any:
			if len(val) == 0 {
				fmt.Fprintf(tw, "%s\t(none)\n", k)
			}
			for i, item := range val {
				fmt.Fprintf(tw, "%s[%d]\t%s\n", k, i, scalar(item))
			}
		default:
			fmt.Fprintf(tw, "%s\t%s\n", k, scalar(val))
		}
	}
	return tw.Flush()
}

func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case map[string]any:
		return summarize(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// summarize renders an object as space-separated k=v pairs in key order.
func summarize(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if m[k] == nil {
			continue
		}
		b, err := json.Marshal(m[k])
		if err != nil {
			continue
		}
		parts = append(parts, k+"="+strings.Trim(string(b), `"`))
	}
	return strings.Join(parts, " ")
}
