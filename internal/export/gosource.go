package export

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

var funcMap = template.FuncMap{
	"quote": strconv.Quote,
}

const offsetTableTmpl = `{{define "offsetTable"}}// Code generated by hwids; DO NOT EDIT.

package {{.Package}}

// VendorCount is the length of VendorIDs and VendorOffsets.
const VendorCount = {{.Table.VendorCount}}

// BlobSize is the length of RawIDs in bytes.
const BlobSize = {{.Table.BlobSize}}

// VendorIDs lists vendor IDs in database order.
var VendorIDs = [VendorCount]string{
{{- range .Table.IDs}}
	{{quote .}},
{{- end}}
}

// VendorOffsets holds the byte offset of each vendor line in RawIDs.
var VendorOffsets = [VendorCount]int{
{{- range .Table.Offsets}}
	{{.}},
{{- end}}
}

// RawIDs is the database text the offsets point into.
const RawIDs = {{quote .Blob}}
{{end}}`

const nestedTableTmpl = `{{define "nestedTable"}}// Code generated by hwids; DO NOT EDIT.

package {{.Package}}

// Vendor is one vendor with its device names.
type Vendor struct {
	Name    string
	Devices map[string]string
}

// VendorCount is the number of entries in Vendors.
const VendorCount = {{.VendorCount}}

// DeviceCount is the number of devices across all vendors.
const DeviceCount = {{.DeviceCount}}

// Vendors maps vendor ID to vendor.
var Vendors = map[string]Vendor{
{{- range .Vendors}}
	{{quote .ID}}: {
		Name: {{quote .Name}},
		Devices: map[string]string{
		{{- range .Devices}}
			{{quote .ID}}: {{quote .Name}},
		{{- end}}
		},
	},
{{- end}}
}
{{end}}`

var templates = template.Must(template.New("").Funcs(funcMap).Parse(offsetTableTmpl + nestedTableTmpl))

type offsetTableData struct {
	Package string
	Table   *OffsetTable
	Blob    string
}

type namedEntry struct {
	ID   string
	Name string
}

type vendorData struct {
	ID      string
	Name    string
	Devices []namedEntry
}

type nestedTableData struct {
	Package     string
	VendorCount int
	DeviceCount int
	Vendors     []vendorData
}

func renderOffsetTableGo(pkg string, t *OffsetTable) ([]byte, error) {
	return render("offsetTable", offsetTableData{Package: pkg, Table: t, Blob: string(t.Blob)})
}

func renderNestedTableGo(pkg string, t *NestedTable) ([]byte, error) {
	data := nestedTableData{
		Package:     pkg,
		VendorCount: t.VendorCount,
		DeviceCount: t.DeviceCount,
	}
	for _, vid := range sortedKeys(t.Vendors) {
		v := t.Vendors[vid]
		vd := vendorData{ID: vid, Name: v.Name}
		for _, did := range sortedKeys(v.Devices) {
			vd.Devices = append(vd.Devices, namedEntry{ID: did, Name: v.Devices[did]})
		}
		data.Vendors = append(data.Vendors, vd)
	}
	return render("nestedTable", data)
}

// render executes a template and runs the result through goimports so the
// generated file is gofmt-clean.
func render(name string, data any) ([]byte, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	formatted, err := imports.Process(name+".go", []byte(b.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("goimports %s: %w", name, err)
	}
	return formatted, nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
