package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"gosc/domain/core"
)

func TestFromDomain_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"dimension", core.NewDimensionError("response length", 10, 9), CodeDimensionMismatch},
		{"parameter", core.NewParameterError("tolerance", "must be positive"), CodeInvalidParameter},
		{"zero variance", core.NewSingularError(core.ErrZeroVariance, "response projector"), CodeNumericalDegeneracy},
		{"rank deficient", core.ErrRankDeficient, CodeNumericalDegeneracy},
		{"manifest", core.NewManifestError("run_id", "is required"), CodeValidationError},
		{"other", stderrors.New("disk full"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromDomain(tt.err)
			assert.Equal(t, tt.code, GetCode(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFromDomain_Nil(t *testing.T) {
	assert.NoError(t, FromDomain(nil))
	assert.NoError(t, Wrap(nil, "context"))
}

func TestWrap_KeepsCode(t *testing.T) {
	inner := ConfigInvalid("OSC_TOLERANCE must be positive")
	err := Wrap(inner, "load configuration")

	assert.Equal(t, CodeConfigInvalid, GetCode(err))
	assert.Contains(t, err.Error(), "load configuration")
	assert.Contains(t, err.Error(), "OSC_TOLERANCE")
}

func TestWrap_MapsDomainErrors(t *testing.T) {
	err := Wrapf(core.ErrZeroVariance, "correct %s", "wold")
	assert.Equal(t, CodeNumericalDegeneracy, GetCode(err))
	assert.True(t, core.IsSingularError(err))
}

func TestWithCodeAndHelpers(t *testing.T) {
	err := WithCode(CodeInvalidInput, stderrors.New("bad cell"))
	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Equal(t, "bad cell", err.Error())
	assert.Equal(t, CodeNumericalDegeneracy, GetCode(WithCode(CodeNumericalDegeneracy, err)))
	assert.Same(t, err, FromDomain(err))

	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.False(t, IsAppError(stderrors.New("plain")))

	canceled := Canceled(context.Canceled)
	assert.ErrorIs(t, canceled, context.Canceled)
	assert.Equal(t, CodeCanceled, canceled.Code)

	assert.Equal(t, "spectra not found", NotFound("spectra").Error())
}
