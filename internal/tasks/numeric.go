package tasks

import "fmt"

func square(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return n * n, nil
	case int64:
		return n * n, nil
	case float64:
		return n * n, nil
	default:
		return nil, fmt.Errorf("value %v (%T) is not a number", v, v)
	}
}

// sum returns an int when every value is integral, float64 otherwise
func sum(values []any) (any, error) {
	var ints int64
	var floats float64
	isFloat := false

	for _, v := range values {
		switch n := v.(type) {
		case int:
			ints += int64(n)
		case int64:
			ints += n
		case float64:
			floats += n
			isFloat = true
		default:
			return nil, fmt.Errorf("value %v (%T) is not a number", v, v)
		}
	}

	if isFloat {
		return floats + float64(ints), nil
	}
	return int(ints), nil
}
