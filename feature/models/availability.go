package models

import (
	"database/sql/driver"
	"fmt"
)

// Availability is the soft-delete state of a character or membership.
// Rows are never removed; an Unavailable row is no longer confirmed present remotely.
type Availability int

const (
	// Active is the zero value so new rows default to available.
	Active Availability = iota
	// Unavailable marks a row whose remote counterpart is gone.
	Unavailable
)

// IsActive reports whether a is Active.
func (a Availability) IsActive() bool {
	return a == Active
}

func (a Availability) String() string {
	switch a {
	case Active:
		return "active"
	case Unavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("availability(%d)", int(a))
	}
}

// Value stores the tag in the boolean is_available column.
func (a Availability) Value() (driver.Value, error) {
	return a == Active, nil
}

// Scan reads the boolean is_available column. Drivers report booleans as
// bool, integers or raw bytes depending on the dialect.
func (a *Availability) Scan(src any) error {
	var available bool
	switch v := src.(type) {
	case bool:
		available = v
	case int64:
		available = v != 0
	case []byte:
		available = len(v) > 0 && v[0] != '0' && v[0] != 'f' && v[0] != 'F'
	case string:
		available = v != "" && v != "0" && v != "false" && v != "FALSE"
	case nil:
		available = false
	default:
		return fmt.Errorf("cannot scan %T into Availability", src)
	}

	if available {
		*a = Active
	} else {
		*a = Unavailable
	}
	return nil
}
