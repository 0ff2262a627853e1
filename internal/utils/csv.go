package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
)

// csvName returns the column name of a struct field and whether it is
// exported to CSV at all. Fields tagged `csv:"-"` are skipped.
func csvName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("csv")
	switch tag {
	case "-":
		return "", false
	case "":
		return field.Name, true
	}
	return tag, true
}

// StructToCsvHeader takes a struct type and returns a slice of strings representing the CSV header.
// It uses the `csv` tag on struct fields to determine the header name.
// If a field doesn't have a `csv` tag, the field name is used.
func StructToCsvHeader(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var headers []string
	for i := 0; i < t.NumField(); i++ {
		if name, ok := csvName(t.Field(i)); ok {
			headers = append(headers, name)
		}
	}
	return headers
}

// WriteToCsvFile writes the given headers and data to a CSV file at the specified filePath.
func WriteToCsvFile[T any](filePath string, headers []string, data []T) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filePath, err)
	}
	defer file.Close()

	if err := WriteCsv(file, headers, data); err != nil {
		return fmt.Errorf("writing %s: %w", filePath, err)
	}
	return file.Close()
}

// WriteCsv writes headers and one row per struct in data. Slices are
// joined with a semicolon to handle multi-value fields.
func WriteCsv[T any](w io.Writer, headers []string, data []T) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, item := range data {
		row := make([]string, len(headers))
		v := reflect.ValueOf(item)

		// If item is a pointer, get the value it points to
		if v.Kind() == reflect.Ptr {
			v = v.Elem()
		}

		if v.Kind() != reflect.Struct {
			return fmt.Errorf("data must be a slice of structs")
		}

		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			name, ok := csvName(t.Field(i))
			if !ok {
				continue
			}
			idx := indexOf(headers, name)
			if idx < 0 {
				continue // Skip fields not in the headers
			}
			row[idx] = formatField(v.Field(i))
		}

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatField(v reflect.Value) string {
	if v.Kind() != reflect.Slice {
		return fmt.Sprintf("%v", v.Interface())
	}
	values := make([]string, v.Len())
	for j := range values {
		values[j] = fmt.Sprintf("%v", v.Index(j).Interface())
	}
	return strings.Join(values, ";")
}

// indexOf returns the index of a string in a slice or -1 if not found
func indexOf(slice []string, item string) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}
