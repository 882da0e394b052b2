package observability

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the slice of the CloudWatch client Metrics needs
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics handles application metrics. A nil *Metrics, or one without a
// client, records nothing.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
	now       func() time.Time
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordCommandExecution records duration and count for a command
func (m *Metrics) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	dims := dimensions(map[string]string{"CommandName": commandName, "Status": status})

	m.put(ctx,
		m.datum("CommandExecution", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
		m.datum("CommandCount", 1, types.StandardUnitCount, dims),
	)
}

// RecordQueryExecution records duration for a query
func (m *Metrics) RecordQueryExecution(ctx context.Context, queryName string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	dims := dimensions(map[string]string{"QueryName": queryName, "Status": status})
	m.put(ctx, m.datum("QueryExecution", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims))
}

// RecordError records error occurrences
func (m *Metrics) RecordError(ctx context.Context, errorType string, errorCode string) {
	dims := dimensions(map[string]string{"ErrorType": errorType, "ErrorCode": errorCode})
	m.put(ctx, m.datum("Errors", 1, types.StandardUnitCount, dims))
}

// RecordBusinessMetric records a count such as imported or migrated products
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricName string, value float64, dims map[string]string) {
	m.put(ctx, m.datum(metricName, value, types.StandardUnitCount, dimensions(dims)))
}

func (m *Metrics) datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension) types.MetricDatum {
	now := time.Now
	if m != nil && m.now != nil {
		now = m.now
	}
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(now()),
	}
}

func (m *Metrics) put(ctx context.Context, data ...types.MetricDatum) {
	if m == nil || m.client == nil {
		return
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}

	// Metrics never fail the operation being measured
	if _, err := m.client.PutMetricData(ctx, input); err != nil && m.logger != nil {
		m.logger.Warn("Failed to send metrics",
			zap.String("metric", aws.ToString(data[0].MetricName)),
			zap.Error(err),
		)
	}
}

func dimensions(values map[string]string) []types.Dimension {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	dims := make([]types.Dimension, 0, len(names))
	for _, name := range names {
		dims = append(dims, types.Dimension{
			Name:  aws.String(name),
			Value: aws.String(values[name]),
		})
	}
	return dims
}
