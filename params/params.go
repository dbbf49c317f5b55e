/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package params normalizes request parameters that may arrive either as a
// list or as a delimited string.
package params

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultSeparator splits delimited string parameters.
const DefaultSeparator = ","

// ErrUnsupportedParameterType is returned when a parameter is neither a string nor a list of strings.
var ErrUnsupportedParameterType = errors.New("type not handled by parameter normalizer")

// AsList returns param as an ordered list of strings.
// A []string is returned unchanged, a []any is accepted when every element is a
// string, and a string is split on sep (DefaultSeparator when omitted).
func AsList(param any, sep ...string) ([]string, error) {
	separator := DefaultSeparator
	if len(sep) > 0 && sep[0] != "" {
		separator = sep[0]
	}

	switch v := param.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("%w: list element %d is %T", ErrUnsupportedParameterType, i, elem)
			}
			out[i] = s
		}
		return out, nil
	case string:
		return strings.Split(v, separator), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedParameterType, param)
	}
}

// FromValues reads key from a querystring and normalizes it.
// A key repeated in the query is treated as a list, a single occurrence as a
// delimited string. The bracket form key[] is read when key is absent and is
// always a list. The bool reports whether a non-empty value was present.
func FromValues(values url.Values, key string, sep ...string) ([]string, bool, error) {
	raw, ok := values[key]
	if !ok {
		if list, ok := values[key+"[]"]; ok && len(list) > 0 {
			return list, true, nil
		}
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	var param any = raw
	if len(raw) == 1 {
		if raw[0] == "" {
			return nil, false, nil
		}
		param = raw[0]
	}

	list, err := AsList(param, sep...)
	if err != nil {
		return nil, true, err
	}
	return list, true, nil
}
