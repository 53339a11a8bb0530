package versioning

import "fmt"

// Verdict is the result of comparing an artifact's stamped version against the
// user's current profile version. Computed, never stored.
type Verdict struct {
	IsStale        bool   `json:"is_stale"`
	DataVersion    int    `json:"data_version"`
	CurrentVersion int    `json:"current_version"`
	VersionGap     int    `json:"version_gap"`
	Reason         string `json:"reason"`
}

// CheckStaleness is a pure, total function: no side effects, no failure modes.
func CheckStaleness(dataVersion, currentVersion int) Verdict {
	v := Verdict{
		DataVersion:    dataVersion,
		CurrentVersion: currentVersion,
	}
	if dataVersion < currentVersion {
		v.IsStale = true
		v.VersionGap = currentVersion - dataVersion
		v.Reason = fmt.Sprintf("artifact computed at v%d, profile now at v%d", dataVersion, currentVersion)
		return v
	}
	v.Reason = fmt.Sprintf("artifact current at v%d", dataVersion)
	return v
}

func IsStale(dataVersion, currentVersion int) bool {
	return dataVersion < currentVersion
}

func IsFresh(dataVersion, currentVersion int) bool {
	return !IsStale(dataVersion, currentVersion)
}
