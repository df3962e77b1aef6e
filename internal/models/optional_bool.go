package models

import "gopkg.in/yaml.v3"

// OptionalBool is a boolean override that may be left unset
type OptionalBool int8

const (
	Unset OptionalBool = iota
	True
	False
)

// OptionalBoolOf wraps a concrete value
func OptionalBoolOf(b bool) OptionalBool {
	if b {
		return True
	}
	return False
}

// Or returns the value if set, def otherwise
func (o OptionalBool) Or(def bool) bool {
	switch o {
	case True:
		return true
	case False:
		return false
	default:
		return def
	}
}

// IsSet reports whether a value was provided
func (o OptionalBool) IsSet() bool {
	return o == True || o == False
}

// Ptr converts to a nullable bool for wire formats
func (o OptionalBool) Ptr() *bool {
	if !o.IsSet() {
		return nil
	}
	b := o == True
	return &b
}

// OptionalBoolFromPtr is the inverse of Ptr
func OptionalBoolFromPtr(b *bool) OptionalBool {
	if b == nil {
		return Unset
	}
	return OptionalBoolOf(*b)
}

func (o OptionalBool) String() string {
	switch o {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unset"
	}
}

// UnmarshalYAML reads a plain YAML boolean
func (o *OptionalBool) UnmarshalYAML(value *yaml.Node) error {
	var b bool
	if err := value.Decode(&b); err != nil {
		return err
	}
	*o = OptionalBoolOf(b)
	return nil
}
