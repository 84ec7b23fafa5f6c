package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseID validates a client supplied identifier and returns its canonical form.
// label names the identifier in the error message, e.g. "photo ID".
func ParseID(raw, label string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", NewValidationError("Invalid " + label + " format")
	}
	return id.String(), nil
}

// ParseIDs validates every identifier in raw, collapsing duplicates.
func ParseIDs(raw []string, label string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		id, err := ParseID(r, label)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return UnionIDs(nil, out), nil
}

// IDList is an ordered set of user identifiers. SQL stores keep it as a JSON
// text column; MongoDB stores it as a native array.
type IDList []string

// Value implements driver.Valuer.
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *IDList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = IDList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("IDList: unsupported scan type %T", src)
	}
	var ids []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ids); err != nil {
			return fmt.Errorf("IDList: %w", err)
		}
	}
	if ids == nil {
		ids = []string{}
	}
	*l = ids
	return nil
}

// GormDataType keeps the column a plain text type on every dialect.
func (IDList) GormDataType() string {
	return "text"
}

// Contains reports whether id is a member of the list.
func (l IDList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// UnionIDs appends the members of add that base lacks, keeping first-seen order.
func UnionIDs(base, add []string) []string {
	seen := make(map[string]struct{}, len(base)+len(add))
	out := make([]string, 0, len(base)+len(add))
	for _, list := range [][]string{base, add} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
