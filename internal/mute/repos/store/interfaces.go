// Package store defines the persistence gateway for the filter record: two
// key-value areas (local-only and cross-device-synchronized) of which exactly
// one is active at a time, selected by the enableSync preference. The flag is
// resolved from the local area alone so area selection never depends on the
// synchronized area being readable first.
package store

import "github.com/haukened/rr-mute/internal/mute/domain"

// AreaID identifies one of the two storage areas.
type AreaID uint8

const (
	// AreaLocal is the device-local area.
	AreaLocal AreaID = iota
	// AreaSync is the cross-device synchronized area.
	AreaSync
)

// String returns a stable string representation of the area.
func (a AreaID) String() string {
	switch a {
	case AreaLocal:
		return "local"
	case AreaSync:
		return "sync"
	default:
		return "unknown"
	}
}

// Gateway persists and retrieves the filter record.
//
//   - ActiveArea resolves which area holds the record, reading only the
//     local area's enableSync value (absent means true, so sync).
//   - Load reads the record from the active area, applying defaults and
//     legacy key fallbacks for absent values.
//   - Save writes the full record to the area selected by the record's own
//     EnableSync preference and removes every known key (current and
//     legacy) from the other area in the same transaction.
type Gateway interface {
	ActiveArea() AreaID
	Load() (domain.Record, error)
	Save(domain.Record) error
	Close() error
}

// Emptier is implemented by gateways that can cheaply report whether the
// active area holds no known keys. Used to decide whether a seed record
// should be imported on first start.
type Emptier interface {
	Empty() (bool, error)
}
