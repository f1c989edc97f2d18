package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockExecutionClientForTest creates a new mock ExecutionClient for testing
func NewMockExecutionClientForTest(t *testing.T) *MockExecutionClient {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockExecutionClient(ctrl)
}

// NewMockAssetClientForTest creates a new mock AssetClient for testing
func NewMockAssetClientForTest(t *testing.T) *MockAssetClient {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockAssetClient(ctrl)
}

// NewMockTokenProbeForTest creates a new mock TokenProbe for testing
func NewMockTokenProbeForTest(t *testing.T) *MockTokenProbe {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockTokenProbe(ctrl)
}

// NewMockSignatureValidatorForTest creates a new mock SignatureValidator for testing
func NewMockSignatureValidatorForTest(t *testing.T) *MockSignatureValidator {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockSignatureValidator(ctrl)
}

// NewMockEventEmitterForTest creates a new mock EventEmitter for testing
func NewMockEventEmitterForTest(t *testing.T) *MockEventEmitter {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockEventEmitter(ctrl)
}
