// Package report renders a scan session for headless output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DrSkyle/netmapper/pkg/discovery"
	"github.com/DrSkyle/netmapper/pkg/scan"
)

// Format selects the output encoding.
type Format string

const (
	Table Format = "table"
	JSON  Format = "json"
	YAML  Format = "yaml"
)

// ParseFormat accepts table, json or yaml ("" means table).
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case Table, "":
		return Table, nil
	case JSON:
		return JSON, nil
	case YAML, "yml":
		return YAML, nil
	}
	return Table, fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

const timeLayout = "2006-01-02 15:04:05"

// Document is the machine-readable form of a session.
type Document struct {
	Status    string             `json:"status" yaml:"status"`
	ScannedAt string             `json:"scanned_at,omitempty" yaml:"scanned_at,omitempty"`
	Count     int                `json:"count" yaml:"count"`
	Devices   []discovery.Device `json:"devices" yaml:"devices"`
	Error     string             `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewDocument converts s, keeping devices in service order.
func NewDocument(s scan.Session) Document {
	doc := Document{
		Status:  s.Status.String(),
		Count:   len(s.Devices),
		Devices: s.Devices,
		Error:   s.ErrorMessage,
	}
	if doc.Devices == nil {
		doc.Devices = []discovery.Device{}
	}
	if !s.CompletedAt.IsZero() {
		doc.ScannedAt = s.CompletedAt.Format(time.RFC3339)
	}
	return doc
}

// Write renders s to w in format f.
func Write(w io.Writer, s scan.Session, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(s))
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(s)); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, table(s))
		return err
	}
}

var columns = []string{"IP", "MAC", "TYPE", "VENDOR"}

func table(s scan.Session) string {
	var b strings.Builder
	if !s.CompletedAt.IsZero() {
		fmt.Fprintf(&b, "Last scan: %s\n", s.CompletedAt.Format(timeLayout))
	}
	if s.Status == scan.Error {
		fmt.Fprintf(&b, "Error: %s\n", s.ErrorMessage)
		return b.String()
	}
	if s.Status != scan.Success {
		b.WriteString("No scan has been run.\n")
		return b.String()
	}

	rows := make([][]string, 0, len(s.Devices)+1)
	rows = append(rows, columns)
	for _, d := range s.Devices {
		rows = append(rows, []string{d.IP, d.MAC, d.Type, d.Vendor})
	}

	widths := make([]int, len(columns))
	for _, r := range rows {
		for i, cell := range r {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for _, r := range rows {
		var line strings.Builder
		for i, cell := range r {
			fmt.Fprintf(&line, "%-*s  ", widths[i], cell)
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n%d device(s)\n", len(s.Devices))
	return b.String()
}
