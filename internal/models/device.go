package models

// Device is a discovered peer on the local network. Identity key is the
// fingerprint when present; alias and address may change on re-discovery.
type Device struct {
	Fingerprint string `json:"fingerprint,omitempty"`
	Alias       string `json:"alias,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	Port        int    `json:"port,omitempty"`
	Protocol    string `json:"protocol,omitempty"`
	DeviceType  string `json:"deviceType,omitempty"`
	DeviceModel string `json:"deviceModel,omitempty"`
}

// DisplayName returns the alias, falling back to a shortened fingerprint.
func (d Device) DisplayName() string {
	if d.Alias != "" {
		return d.Alias
	}
	if len(d.Fingerprint) > 16 {
		return d.Fingerprint[:16] + "..."
	}
	return d.Fingerprint
}

// FavoriteDevice is a user-pinned device, persisted by the backend. It is
// independent of live Device records; online state is computed by
// cross-referencing fingerprints at display time.
type FavoriteDevice struct {
	Fingerprint string `json:"favorite_fingerprint"`
	Alias       string `json:"favorite_alias"`
}

// NetworkInterface describes one backend-visible network interface.
type NetworkInterface struct {
	InterfaceName string `json:"interface_name"`
	IPAddress     string `json:"ip_address"`
}
