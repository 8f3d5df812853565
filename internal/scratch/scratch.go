// Package scratch encodes the typed, versioned state records bots keep in the
// scratch field of their activities and rewards.
package scratch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/set-night/ibisbots/internal/domain"
)

// Record is implemented by every scratch document. Version reports the schema
// version the document was written with.
type Record interface {
	SchemaVersion() int
}

// Versioned is embedded in scratch documents to carry the schema version.
type Versioned struct {
	Version int `json:"version,omitempty"`
}

func (v Versioned) SchemaVersion() int {
	if v.Version == 0 {
		return 1
	}
	return v.Version
}

// Encode marshals a scratch document.
func Encode(v Record) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode scratch: %w", err)
	}
	return string(data), nil
}

// Decode unmarshals raw into v and rejects documents newer than maxVersion.
// Documents without a version field were written before versioning and are
// treated as version 1.
func Decode(raw string, v Record, maxVersion int) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode scratch: %w", err)
	}
	if got := v.SchemaVersion(); got > maxVersion {
		return fmt.Errorf("scratch version %d > %d: %w", got, maxVersion, domain.ErrScratchVersion)
	}
	return nil
}

// IsEmpty reports whether raw holds no state at all.
func IsEmpty(raw string) bool {
	s := strings.TrimSpace(raw)
	return s == "" || s == "{}" || s == "null"
}
