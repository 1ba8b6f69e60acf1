package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
)

func TestError_Error(t *testing.T) {
	err := errclass.ErrDecode.WithMessage("invalid base64 payload")
	assert.Equal(t, "E_DECODE: invalid base64 payload", err.Error())
}

func TestError_Error_WithoutMessage(t *testing.T) {
	err := &errclass.Error{Code: "E_TEST_ERROR"}
	assert.Equal(t, "E_TEST_ERROR", err.Error())
}

func TestError_Error_WithCause(t *testing.T) {
	err := errclass.ErrConfigurationUnavailable.WithMessage("agent a1").WithCause(errors.New("dial tcp: refused"))
	assert.Equal(t, "E_CONFIGURATION_UNAVAILABLE: agent a1: dial tcp: refused", err.Error())
}

func TestError_Is(t *testing.T) {
	err := errclass.ErrLineParse.WithMessage("specific message")
	require.True(t, errors.Is(err, errclass.ErrLineParse))
	require.False(t, errors.Is(err, errclass.ErrDecode))
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("process batch: %w", errclass.ErrDecode.WithMessage("gzip"))
	assert.True(t, errors.Is(err, errclass.ErrDecode))
}

func TestError_UnwrapCause(t *testing.T) {
	cause := errclass.ErrAuth.WithMessage("401 Unauthorized")
	err := errclass.ErrConfigurationUnavailable.WithCause(cause)

	assert.True(t, errors.Is(err, errclass.ErrConfigurationUnavailable))
	assert.True(t, errors.Is(err, errclass.ErrAuth))
	assert.False(t, errors.Is(err, errclass.ErrNotFound))

	var target *errclass.Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "E_CONFIGURATION_UNAVAILABLE", target.Code)
}

func TestError_WithMessagef(t *testing.T) {
	err := errclass.ErrNotFound.WithMessagef("agent %s in org %s", "a1", "acme")
	assert.Equal(t, "E_NOT_FOUND: agent a1 in org acme", err.Error())
}

func TestError_WithMessageKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := errclass.ErrPublishFailed.WithCause(cause).WithMessage("cloudwatch")
	assert.ErrorIs(t, err, cause)
}

func TestError_Codes(t *testing.T) {
	codes := map[*errclass.Error]string{
		errclass.ErrDecode:                   "E_DECODE",
		errclass.ErrConfigurationUnavailable: "E_CONFIGURATION_UNAVAILABLE",
		errclass.ErrLineParse:                "E_LINE_PARSE",
		errclass.ErrAuth:                     "E_AUTH",
		errclass.ErrNotFound:                 "E_NOT_FOUND",
		errclass.ErrPublishFailed:            "E_PUBLISH_FAILED",
		errclass.ErrConfigInvalid:            "E_CONFIG_INVALID",
	}
	for e, code := range codes {
		assert.Equal(t, code, e.Code)
	}
}
