package sagas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StepFunc executes one step; its result is handed to the next step
type StepFunc func(ctx context.Context, data interface{}) (interface{}, error)

// SagaStep represents a single step in a saga
type SagaStep struct {
	Name       string
	Execute    StepFunc
	Compensate func(ctx context.Context, data interface{}) error
	MaxRetries int
	RetryDelay time.Duration
	// Retryable decides whether a failed attempt may be repeated. Nil means
	// every error is retried.
	Retryable func(err error) bool
}

// SagaState represents the current state of a saga execution
type SagaState string

const (
	SagaStatePending      SagaState = "PENDING"
	SagaStateRunning      SagaState = "RUNNING"
	SagaStateCompleted    SagaState = "COMPLETED"
	SagaStateFailed       SagaState = "FAILED"
	SagaStateCompensating SagaState = "COMPENSATING"
	SagaStateCompensated  SagaState = "COMPENSATED"
)

// Saga runs a sequence of non-atomic steps. A failed step triggers the
// compensations registered by the steps that already completed; steps
// without compensation are left as they are.
type Saga struct {
	id            string
	name          string
	steps         []SagaStep
	compensations []func(ctx context.Context) error
	state         SagaState
	currentStep   int
	logger        *zap.Logger
	fields        []zap.Field
}

// NewSaga creates a new saga instance
func NewSaga(name string, logger *zap.Logger) *Saga {
	return &Saga{
		id:     uuid.New().String(),
		name:   name,
		state:  SagaStatePending,
		logger: logger,
	}
}

// AddStep adds a step to the saga
func (s *Saga) AddStep(step SagaStep) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// SetMetadata attaches a field to every log line the saga writes
func (s *Saga) SetMetadata(key string, value string) *Saga {
	s.fields = append(s.fields, zap.String(key, value))
	return s
}

// Execute runs the saga
func (s *Saga) Execute(ctx context.Context, initialData interface{}) (interface{}, error) {
	s.state = SagaStateRunning
	s.logger.Debug("Starting saga execution", s.logFields(zap.Int("total_steps", len(s.steps)))...)

	data := initialData
	for i, step := range s.steps {
		s.currentStep = i

		result, err := s.executeStepWithRetry(ctx, step, data)
		if err != nil {
			s.state = SagaStateFailed
			s.logger.Warn("Saga step failed", s.logFields(zap.String("step_name", step.Name), zap.Error(err))...)

			if len(s.compensations) > 0 {
				s.compensate(ctx)
				s.state = SagaStateCompensated
			}
			return nil, fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}

		data = result
		if step.Compensate != nil {
			stepData := data
			compensate := step.Compensate
			s.compensations = append(s.compensations, func(ctx context.Context) error {
				return compensate(ctx, stepData)
			})
		}
	}

	s.state = SagaStateCompleted
	s.logger.Debug("Saga completed", s.logFields(zap.Int("completed_steps", len(s.steps)))...)
	return data, nil
}

// executeStepWithRetry executes a step with retry logic
func (s *Saga) executeStepWithRetry(ctx context.Context, step SagaStep, data interface{}) (interface{}, error) {
	attempts := step.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			s.logger.Debug("Retrying saga step",
				s.logFields(zap.String("step_name", step.Name), zap.Int("attempt", attempt+1))...)
			if err := sleep(ctx, step.RetryDelay); err != nil {
				return nil, err
			}
		}

		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if step.Retryable != nil && !step.Retryable(err) {
			break
		}
	}

	return nil, lastErr
}

// compensate runs compensation logic in reverse order. Failures are logged
// and the remaining compensations still run.
func (s *Saga) compensate(ctx context.Context) {
	s.state = SagaStateCompensating
	for i := len(s.compensations) - 1; i >= 0; i-- {
		if err := s.compensations[i](ctx); err != nil {
			s.logger.Error("Compensation failed", s.logFields(zap.Int("step_number", i+1), zap.Error(err))...)
		}
	}
}

func (s *Saga) logFields(extra ...zap.Field) []zap.Field {
	fields := make([]zap.Field, 0, len(s.fields)+len(extra)+2)
	fields = append(fields, zap.String("saga_id", s.id), zap.String("saga_name", s.name))
	fields = append(fields, s.fields...)
	return append(fields, extra...)
}

// GetState returns the current state of the saga
func (s *Saga) GetState() SagaState {
	return s.state
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SagaBuilder provides a fluent interface for building sagas
type SagaBuilder struct {
	saga       *Saga
	maxRetries int
	retryDelay time.Duration
	retryable  func(error) bool
}

// NewSagaBuilder creates a new saga builder
func NewSagaBuilder(name string, logger *zap.Logger) *SagaBuilder {
	return &SagaBuilder{saga: NewSaga(name, logger)}
}

// WithRetryPolicy applies to every step added after it
func (b *SagaBuilder) WithRetryPolicy(maxRetries int, retryDelay time.Duration, retryable func(error) bool) *SagaBuilder {
	b.maxRetries = maxRetries
	b.retryDelay = retryDelay
	b.retryable = retryable
	return b
}

// WithStep adds a step to the saga
func (b *SagaBuilder) WithStep(name string, execute StepFunc) *SagaBuilder {
	b.saga.AddStep(SagaStep{
		Name:       name,
		Execute:    execute,
		MaxRetries: b.maxRetries,
		RetryDelay: b.retryDelay,
		Retryable:  b.retryable,
	})
	return b
}

// WithMetadata adds a log field to the saga
func (b *SagaBuilder) WithMetadata(key, value string) *SagaBuilder {
	b.saga.SetMetadata(key, value)
	return b
}

// Build returns the constructed saga
func (b *SagaBuilder) Build() *Saga {
	return b.saga
}
