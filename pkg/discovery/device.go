// Package discovery is the HTTP client for the remote network-discovery service.
package discovery

// Device is one endpoint reported by a scan. Devices are never mutated after
// decoding; a new scan replaces the whole set.
type Device struct {
	IP     string `json:"ip" yaml:"ip"`
	MAC    string `json:"mac" yaml:"mac"`
	Type   string `json:"type" yaml:"type"`
	Vendor string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

// HasVendor reports whether the service resolved a vendor for the device.
func (d Device) HasVendor() bool {
	return d.Vendor != ""
}

// Image is a graph payload returned by the service.
type Image struct {
	Data        []byte
	ContentType string
}
