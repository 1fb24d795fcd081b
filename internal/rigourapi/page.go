package rigourapi

import "strconv"

// MaxLimit is the largest page size the API accepts.
const MaxLimit = 100

// CheckPage applies the API's pagination bounds: skip >= 0 and
// 1 <= limit <= MaxLimit. It returns nil when both values are valid.
func CheckPage(skip, limit int) *ValidationError {
	var fields []FieldError
	if skip < 0 {
		fields = append(fields, lowerBound("skip", skip, 0))
	}
	switch {
	case limit < 1:
		fields = append(fields, lowerBound("limit", limit, 1))
	case limit > MaxLimit:
		fields = append(fields, FieldError{
			Loc:   []any{"query", "limit"},
			Msg:   "Input should be less than or equal to " + strconv.Itoa(MaxLimit),
			Type:  "less_than_equal",
			Input: strconv.Itoa(limit),
		})
	}
	if len(fields) == 0 {
		return nil
	}
	return NewValidationError(fields...)
}

// QueryError reports an unparsable query parameter.
func QueryError(name, input, msg string) *ValidationError {
	return NewValidationError(FieldError{
		Loc:   []any{"query", name},
		Msg:   msg,
		Type:  "value_error",
		Input: input,
	})
}

func lowerBound(name string, value, min int) FieldError {
	return FieldError{
		Loc:   []any{"query", name},
		Msg:   "Input should be greater than or equal to " + strconv.Itoa(min),
		Type:  "greater_than_equal",
		Input: strconv.Itoa(value),
	}
}
