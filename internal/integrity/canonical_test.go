package integrity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetrascience/ts-agent-monitoring/internal/integrity"
)

func TestCanonicalJSON_SortedKeys(t *testing.T) {
	out, err := integrity.CanonicalJSON([]byte(`{"zebra":1,"alpha":2,"mid":3}`))
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":3,"zebra":1}`, string(out))
}

func TestCanonicalJSON_Nested(t *testing.T) {
	out, err := integrity.CanonicalJSON([]byte(`{ "b": {"z": 1, "a": 2}, "a": [3, {"y": null, "x": true}] }`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":[3,{"x":true,"y":null}],"b":{"a":2,"z":1}}`, string(out))
}

func TestCanonicalJSON_NumbersVerbatim(t *testing.T) {
	out, err := integrity.CanonicalJSON([]byte(`{"big":12345678901234567890,"f":1.50}`))
	require.NoError(t, err)
	assert.Equal(t, `{"big":12345678901234567890,"f":1.50}`, string(out))
}

func TestCanonicalJSON_Invalid(t *testing.T) {
	_, err := integrity.CanonicalJSON([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestCanonicalJSON_BackslashPaths(t *testing.T) {
	out, err := integrity.CanonicalJSON([]byte(`{ "path" : "c:\\test1\\" }`))
	require.NoError(t, err)
	assert.Equal(t, `{"path":"c:\\test1\\"}`, string(out))
}
