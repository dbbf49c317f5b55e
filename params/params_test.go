/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package params

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsListReturnsListUnchanged(t *testing.T) {
	in := []string{"id1", "id"}

	got, err := AsList(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestAsListSplitsCommaSeparatedString(t *testing.T) {
	got, err := AsList("id1,id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id1", "id"}, got)
}

func TestAsListRoundTrip(t *testing.T) {
	inputs := []string{"a", "a,b,c", ",leading", "trailing,", "x,,y", ""}
	for _, in := range inputs {
		got, err := AsList(in)
		require.NoError(t, err)
		assert.Equal(t, in, strings.Join(got, DefaultSeparator), "round trip of %q", in)
	}
}

func TestAsListCustomSeparator(t *testing.T) {
	got, err := AsList("a|b|c", "|")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, "a|b|c", strings.Join(got, "|"))
}

func TestAsListDecodedJSONArray(t *testing.T) {
	got, err := AsList([]any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = AsList([]any{"a", 2.0})
	assert.True(t, errors.Is(err, ErrUnsupportedParameterType))
}

func TestAsListUnsupportedTypes(t *testing.T) {
	for _, in := range []any{42, 3.14, true, nil, map[string]any{"a": "b"}} {
		_, err := AsList(in)
		assert.ErrorIs(t, err, ErrUnsupportedParameterType, "input %v", in)
	}
}

func TestFromValues(t *testing.T) {
	t.Run("Absent", func(t *testing.T) {
		list, ok, err := FromValues(url.Values{}, "ids")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, list)
	})

	t.Run("Empty", func(t *testing.T) {
		_, ok, err := FromValues(url.Values{"ids": {""}}, "ids")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Delimited", func(t *testing.T) {
		list, ok, err := FromValues(url.Values{"ids": {"a,b"}}, "ids")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, list)
	})

	t.Run("Repeated", func(t *testing.T) {
		list, ok, err := FromValues(url.Values{"ids": {"a", "b,c"}}, "ids")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b,c"}, list)
	})

	t.Run("Bracketed", func(t *testing.T) {
		list, ok, err := FromValues(url.Values{"ids[]": {"a,b"}}, "ids")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"a,b"}, list)

		list, ok, err = FromValues(url.Values{"ids[]": {"a", "b"}, "ids": {"c"}}, "ids")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"c"}, list)
	})
}
