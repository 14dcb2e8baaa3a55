package schema

import "errors"

// Error kinds raised by schema construction and value validation.
// All errors returned by this package wrap exactly one of these sentinels,
// so callers can classify failures with errors.Is.
var (
	// ErrConfig marks an invalid field descriptor (non-positive dimension,
	// bad index tuning parameters, ...). Raised when the schema holding the
	// descriptor is built; fatal to that schema.
	ErrConfig = errors.New("schema: invalid field configuration")

	// ErrSchema marks a structurally invalid schema or a reference to a
	// field that does not exist (missing/duplicate primary key, reserved
	// name, index incompatible with the field's element type).
	ErrSchema = errors.New("schema: invalid schema")

	// ErrValidation marks an invalid value for an otherwise valid field:
	// wrong vector length, wrong element type, oversized varchar, an
	// already-keyed insert. Always raised before any network access.
	ErrValidation = errors.New("schema: invalid value")
)

// IsConfigError reports whether err stems from an invalid field descriptor.
func IsConfigError(err error) bool { return errors.Is(err, ErrConfig) }

// IsSchemaError reports whether err stems from an invalid schema or an
// unknown field reference.
func IsSchemaError(err error) bool { return errors.Is(err, ErrSchema) }

// IsValidationError reports whether err stems from an invalid field value.
func IsValidationError(err error) bool { return errors.Is(err, ErrValidation) }
