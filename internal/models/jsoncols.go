package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// DietaryFlags is a nullable JSON object of boolean dietary markers such as
// {"vegan": true, "gluten_free": false}. A nil map is stored as SQL NULL and
// means the information is unknown, which is different from an empty object.
type DietaryFlags map[string]bool

// Value implements driver.Valuer.
func (f DietaryFlags) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]bool(f))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (f *DietaryFlags) Scan(value any) error {
	raw, ok, err := jsonBytes(value)
	if err != nil || !ok {
		*f = nil
		return err
	}
	var m map[string]bool
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("scan dietary flags: %w", err)
	}
	*f = m
	return nil
}

// GormDBDataType picks jsonb on postgres and plain JSON elsewhere.
func (DietaryFlags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonColumnType(db)
}

// StringList is a nullable JSON array of strings. nil is stored as NULL.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value any) error {
	raw, ok, err := jsonBytes(value)
	if err != nil || !ok {
		*l = nil
		return err
	}
	var s []string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	*l = s
	return nil
}

// GormDBDataType picks jsonb on postgres and plain JSON elsewhere.
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonColumnType(db)
}

func jsonBytes(value any) ([]byte, bool, error) {
	switch v := value.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		if len(v) == 0 || string(v) == "null" {
			return nil, false, nil
		}
		return v, true, nil
	case string:
		if v == "" || v == "null" {
			return nil, false, nil
		}
		return []byte(v), true, nil
	default:
		return nil, false, fmt.Errorf("unsupported JSON column value %T", value)
	}
}

func jsonColumnType(db *gorm.DB) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "json"
}
