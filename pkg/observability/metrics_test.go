package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCloudWatch struct {
	mock.Mock
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	args := m.Called(ctx, params)
	return &cloudwatch.PutMetricDataOutput{}, args.Error(0)
}

func TestMetrics_RecordCommandExecution(t *testing.T) {
	// Arrange
	client := new(mockCloudWatch)
	var captured *cloudwatch.PutMetricDataInput
	client.On("PutMetricData", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*cloudwatch.PutMetricDataInput) }).
		Return(nil)
	metrics := NewMetrics("SalesAdmin", client, zap.NewNop())

	// Act
	metrics.RecordCommandExecution(context.Background(), "ImportProducts", 1500*time.Millisecond, errors.New("x"))

	// Assert
	require.NotNil(t, captured)
	assert.Equal(t, "SalesAdmin", aws.ToString(captured.Namespace))
	require.Len(t, captured.MetricData, 2)
	assert.Equal(t, float64(1500), aws.ToFloat64(captured.MetricData[0].Value))
	dims := captured.MetricData[0].Dimensions
	require.Len(t, dims, 2)
	assert.Equal(t, "CommandName", aws.ToString(dims[0].Name))
	assert.Equal(t, "failure", aws.ToString(dims[1].Value))
}

func TestMetrics_SendFailureIsSwallowed(t *testing.T) {
	client := new(mockCloudWatch)
	client.On("PutMetricData", mock.Anything, mock.Anything).Return(errors.New("throttled"))
	metrics := NewMetrics("SalesAdmin", client, zap.NewNop())

	assert.NotPanics(t, func() {
		metrics.RecordBusinessMetric(context.Background(), "ProductsImported", 3, nil)
	})
	client.AssertNumberOfCalls(t, "PutMetricData", 1)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var metrics *Metrics

	assert.NotPanics(t, func() {
		metrics.RecordError(context.Background(), "VALIDATION", "")
		NewMetrics("x", nil, nil).RecordError(context.Background(), "VALIDATION", "")
	})
}

func TestTracer_DisabledRunsFunction(t *testing.T) {
	var nilTracer *Tracer
	ran := 0

	require.NoError(t, nilTracer.TraceFunction(context.Background(), "flush", func(context.Context) error { ran++; return nil }))
	require.NoError(t, NewTracer("svc", true).TraceFunction(context.Background(), "flush", func(context.Context) error { ran++; return nil }))

	assert.Equal(t, 2, ran)
	assert.False(t, nilTracer.Enabled())
}
