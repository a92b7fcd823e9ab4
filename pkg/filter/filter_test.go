package filter

import (
	"testing"

	"github.com/DrSkyle/netmapper/pkg/discovery"
)

var devices = []discovery.Device{
	{IP: "192.168.1.1", MAC: "AA:BB:CC:00:11:22", Type: "router", Vendor: "Acme"},
	{IP: "192.168.1.20", MAC: "AA:BB:CC:00:11:33", Type: "laptop"},
	{IP: "10.0.0.5", MAC: "DE:AD:BE:EF:00:01", Type: "printer", Vendor: "Inkwell"},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"empty keeps all", "", []string{"192.168.1.1", "192.168.1.20", "10.0.0.5"}},
		{"by type", `kind == "router"`, []string{"192.168.1.1"}},
		{"by subnet", `ip.startsWith("192.168.")`, []string{"192.168.1.1", "192.168.1.20"}},
		{"vendor present", `vendor != ""`, []string{"192.168.1.1", "10.0.0.5"}},
		{"mac match", `mac.contains("BE:EF")`, []string{"10.0.0.5"}},
		{"nothing", `kind == "camera"`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) failed: %v", tt.expr, err)
			}
			got := f.Apply(devices)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d devices, got %d (%v)", len(tt.want), len(got), got)
			}
			for i, d := range got {
				if d.IP != tt.want[i] {
					t.Errorf("Device %d: expected %s, got %s", i, tt.want[i], d.IP)
				}
			}
		})
	}
}

func TestCompileRejectsInvalid(t *testing.T) {
	for _, expr := range []string{`kind ==`, `cost > 10`, `ip`} {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Expected error for %q", expr)
		}
	}
}

func TestNilFilterMatchesEverything(t *testing.T) {
	var f *Filter
	if !f.Match(devices[0]) {
		t.Error("nil filter should match")
	}
	if f.String() != "" {
		t.Errorf("Expected empty string, got %q", f.String())
	}
}
