package fielderr

// Constructor helpers, one per taxonomy case.
// NOTE: Keep message templates stable; clients key interpolation off Vars.

func UnknownField(field, owner string, path Path) *Error {
	return &Error{
		Type:    TypeUnknownField,
		Message: "unknown field %{field} on %{type}",
		Vars:    map[string]any{"field": field, "type": owner},
		Path:    path,
		Fields:  []string{field},
	}
}

func DuplicateField(field string, path Path) *Error {
	return &Error{
		Type:    TypeDuplicateField,
		Message: "duplicate field %{field} in selection",
		Vars:    map[string]any{"field": field},
		Path:    path,
		Fields:  []string{field},
	}
}

func RequiresFieldSelection(field string, path Path) *Error {
	return &Error{
		Type:    TypeRequiresFieldSelection,
		Message: "field %{field} requires a nested field selection",
		Vars:    map[string]any{"field": field},
		Path:    path,
		Fields:  []string{field},
	}
}

func InvalidFieldSelection(field string, path Path) *Error {
	return &Error{
		Type:    TypeInvalidFieldSelection,
		Message: "cannot select into primitive field %{field}",
		Vars:    map[string]any{"field": field},
		Path:    path,
		Fields:  []string{field},
	}
}

func NoNesting(field string, path Path) *Error {
	return &Error{
		Type:    TypeNoNesting,
		Message: "field %{field} does not support nested selection",
		Vars:    map[string]any{"field": field},
		Path:    path,
		Fields:  []string{field},
	}
}

func InvalidArguments(field, detail string, path Path) *Error {
	return &Error{
		Type:    TypeInvalidArguments,
		Message: "invalid arguments for calculation %{field}: %{detail}",
		Vars:    map[string]any{"field": field, "detail": detail},
		Path:    path,
		Fields:  []string{field},
		Details: detail,
	}
}

func RequiresArguments(field string, path Path) *Error {
	return &Error{
		Type:    TypeRequiresArguments,
		Message: "calculation %{field} requires arguments",
		Vars:    map[string]any{"field": field},
		Path:    path,
		Fields:  []string{field},
	}
}

func UnsupportedCombination(detail string, fields []string, path Path) *Error {
	return &Error{
		Type:    TypeUnsupportedCombination,
		Message: "unsupported field combination: %{detail}",
		Vars:    map[string]any{"detail": detail},
		Path:    path,
		Fields:  fields,
	}
}

func NoUnionMatch(expected []string, path Path) *Error {
	return &Error{
		Type:    TypeInvalidUnionInput,
		Message: "union value does not match any declared member; expected one of %{expected}",
		Vars:    map[string]any{"expected": expected},
		Path:    path,
		Fields:  expected,
	}
}

func AmbiguousUnionMatch(candidates []string, path Path) *Error {
	return &Error{
		Type:    TypeInvalidUnionInput,
		Message: "union value matches more than one member: %{candidates}",
		Vars:    map[string]any{"candidates": candidates},
		Path:    path,
		Fields:  candidates,
	}
}

func TypeResolution(name, detail string, path Path) *Error {
	return &Error{
		Type:    TypeTypeResolution,
		Message: "cannot resolve type %{type}: %{detail}",
		Vars:    map[string]any{"type": name, "detail": detail},
		Path:    path,
		Details: detail,
	}
}
