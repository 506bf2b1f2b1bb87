package model

// Version identifies a wallet schema version reachable by an upgrade
type Version string

const (
	VersionV3 Version = "V3"
	VersionV4 Version = "V4"
)

// Number returns the wrapper version number for v
func (v Version) Number() int {
	switch v {
	case VersionV3:
		return 3
	case VersionV4:
		return 4
	default:
		return 0
	}
}

// UpgradeStatusResponse represents response for GET /wallet/upgrade
type UpgradeStatusResponse struct {
	NeedsUpgrade bool      `json:"needsUpgrade"`
	Versions     []Version `json:"versions"`
}

// UpgradeEvent is one NDJSON line of POST /wallet/upgrade
type UpgradeEvent struct {
	Version Version `json:"version,omitempty"`
	Error   string  `json:"error,omitempty"`
	Done    bool    `json:"done,omitempty"`
}
