package chassis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleService struct{ label string }

func TestRegisterAndGetService(t *testing.T) {
	ctrl := NewController()
	require.NoError(t, RegisterService(ctrl, "greeter", &sampleService{label: "hi"}))

	svc, ok := GetService[*sampleService](ctrl, "greeter")
	require.True(t, ok)
	assert.Equal(t, "hi", svc.label)
}

func TestGetServiceMissingNameReturnsZeroValue(t *testing.T) {
	ctrl := NewController()
	svc, ok := GetService[*sampleService](ctrl, "ghost")
	assert.False(t, ok)
	assert.Nil(t, svc)
}

func TestGetServiceWrongTypeReturnsFalse(t *testing.T) {
	ctrl := NewController()
	require.NoError(t, RegisterService(ctrl, "greeter", 42))
	_, ok := GetService[*sampleService](ctrl, "greeter")
	assert.False(t, ok)
}

func TestRegisterServiceRejectsDuplicateName(t *testing.T) {
	ctrl := NewController()
	require.NoError(t, RegisterService(ctrl, "greeter", 1))
	assert.ErrorIs(t, RegisterService(ctrl, "greeter", 2), ErrServiceAlreadyRegistered)
}

func TestJoinErrorsAggregatesMultipleFailures(t *testing.T) {
	var agg error
	agg = joinErrors(agg, assertErr{"first"})
	agg = joinErrors(agg, assertErr{"second"})
	require.Error(t, agg)
	assert.Contains(t, agg.Error(), "first")
	assert.Contains(t, agg.Error(), "second")
}

func TestJoinErrorsNilNextLeavesExistingUnchanged(t *testing.T) {
	base := assertErr{"first"}
	agg := joinErrors(error(base), nil)
	assert.Equal(t, base, agg)
}
