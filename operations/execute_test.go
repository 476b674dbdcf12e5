package operations

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenstake/deployments/pkg/logger"
)

func Test_ExecuteOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		options           []ExecuteOption[int, any]
		IsUnrecoverable   bool
		wantOpCalledTimes int
		wantOutput        int
		wantErr           string
	}{
		{
			name:              "no retry",
			wantOpCalledTimes: 1,
			wantErr:           "test error",
		},
		{
			name: "with default retry",
			options: []ExecuteOption[int, any]{
				WithRetry[int, any](),
			},
			wantOpCalledTimes: 3,
			wantOutput:        2,
		},
		{
			name: "with custom retry eventual success",
			options: []ExecuteOption[int, any]{
				WithRetryConfig(RetryConfig[int, any]{
					Enabled: true,
					Policy: RetryPolicy{
						MaxAttempts: 10,
					},
				}),
			},
			wantOpCalledTimes: 3,
			wantOutput:        2,
		},
		{
			name: "with custom retry eventual failure",
			options: []ExecuteOption[int, any]{
				WithRetryConfig(RetryConfig[int, any]{
					Enabled: true,
					Policy: RetryPolicy{
						MaxAttempts: 1,
					},
				}),
			},
			wantOpCalledTimes: 1,
			wantErr:           "test error",
		},
		{
			name: "NewInputHook",
			options: []ExecuteOption[int, any]{
				WithRetryInput(func(attempt uint, err error, input int, deps any) int {
					require.ErrorContains(t, err, "test error")
					// update input to 5 after first failed attempt
					return 5
				}),
			},
			wantOpCalledTimes: 3,
			wantOutput:        6,
		},
		{
			name:              "UnrecoverableError",
			IsUnrecoverable:   true,
			wantOpCalledTimes: 1,
			wantErr:           "fatal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			failTimes := 2
			handlerCalledTimes := 0
			handler := func(b Bundle, deps any, input int) (output int, err error) {
				handlerCalledTimes++
				if tt.IsUnrecoverable {
					return 0, NewUnrecoverableError(errors.New("fatal error"))
				}

				if failTimes > 0 {
					failTimes--
					return 0, errors.New("test error")
				}

				return input + 1, nil
			}
			op := NewOperation("plus1", semver.MustParse("1.0.0"), "test operation", handler)
			e := NewBundle(context.Background, logger.Test(t), NewMemoryReporter())

			res, err := ExecuteOperation(e, op, nil, 1, tt.options...)

			if tt.wantErr != "" {
				require.Error(t, res.Err)
				require.Error(t, err)
				require.ErrorContains(t, res.Err, tt.wantErr)
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.Nil(t, res.Err)
				require.NoError(t, err)
				assert.Equal(t, tt.wantOutput, res.Output)
			}
			assert.Equal(t, tt.wantOpCalledTimes, handlerCalledTimes)
			// check report is added to reporter
			report, err := e.reporter.GetReport(res.ID)
			require.NoError(t, err)
			assert.NotNil(t, report)
		})
	}
}

func Test_ExecuteOperation_ErrorReporter(t *testing.T) {
	t.Parallel()

	op := NewOperation("plus1", semver.MustParse("1.0.0"), "test operation",
		func(e Bundle, deps any, input int) (output int, err error) {
			return input + 1, nil
		})

	reportErr := errors.New("add report error")
	errReporter := errorReporter{
		Reporter:       NewMemoryReporter(),
		AddReportError: reportErr,
	}
	e := NewBundle(context.Background, logger.Test(t), errReporter)

	res, err := ExecuteOperation(e, op, nil, 1)
	require.Error(t, err)
	require.ErrorContains(t, err, reportErr.Error())
	require.Nil(t, res.Err)
}

func Test_ExecuteOperation_WithPreviousRun(t *testing.T) {
	t.Parallel()

	handlerCalledTimes := 0
	handler := func(b Bundle, deps any, input int) (output int, err error) {
		handlerCalledTimes++
		return input + 1, nil
	}
	handlerWithErrorCalledTimes := 0
	handlerWithError := func(b Bundle, deps any, input int) (output int, err error) {
		handlerWithErrorCalledTimes++
		return 0, NewUnrecoverableError(errors.New("test error"))
	}

	op := NewOperation("plus1", semver.MustParse("1.0.0"), "test operation", handler)
	opWithError := NewOperation("plus1-error", semver.MustParse("1.0.0"), "test operation error", handlerWithError)
	bundle := NewBundle(t.Context, logger.Test(t), NewMemoryReporter())

	// first run
	res, err := ExecuteOperation(bundle, op, nil, 1)
	require.NoError(t, err)
	require.Nil(t, res.Err)
	assert.Equal(t, 2, res.Output)
	assert.Equal(t, 1, handlerCalledTimes)

	// rerun should return previous report
	res, err = ExecuteOperation(bundle, op, nil, 1)
	require.NoError(t, err)
	require.Nil(t, res.Err)
	assert.Equal(t, 2, res.Output)
	assert.Equal(t, 1, handlerCalledTimes)

	// new run with different input, should perform execution
	res, err = ExecuteOperation(bundle, op, nil, 3)
	require.NoError(t, err)
	require.Nil(t, res.Err)
	assert.Equal(t, 4, res.Output)
	assert.Equal(t, 2, handlerCalledTimes)

	// new run with different op, should perform execution
	op = NewOperation("plus1-v2", semver.MustParse("2.0.0"), "test operation", handler)
	res, err = ExecuteOperation(bundle, op, nil, 1)
	require.NoError(t, err)
	require.Nil(t, res.Err)
	assert.Equal(t, 2, res.Output)
	assert.Equal(t, 3, handlerCalledTimes)

	// new run with op that returns error
	res, err = ExecuteOperation(bundle, opWithError, nil, 1)
	require.Error(t, err)
	require.ErrorContains(t, err, "test error")
	require.ErrorContains(t, res.Err, "test error")
	assert.Equal(t, 1, handlerWithErrorCalledTimes)

	// rerun with op that returns error, should attempt execution again
	res, err = ExecuteOperation(bundle, opWithError, nil, 1)
	require.Error(t, err)
	require.ErrorContains(t, err, "test error")
	require.ErrorContains(t, res.Err, "test error")
	assert.Equal(t, 2, handlerWithErrorCalledTimes)
}

func Test_ExecuteOperation_Unserializable_Data(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     any
		output    any
		wantError string
	}{
		{
			name:   "both input and output are serializable",
			input:  1,
			output: 2,
		},
		{
			name:      "input is serializable, output is not",
			input:     1,
			output:    func() bool { return true },
			wantError: "operation example output: data cannot be safely written to disk without data lost, avoid type that can't be serialized",
		},
		{
			name: "input is not serializable, output is",
			input: struct {
				A            int
				privateField string
			}{
				A:            1,
				privateField: "private",
			},
			output:    2,
			wantError: "operation example input: data cannot be safely written to disk without data lost, avoid type that can't be serialized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			op := NewOperation("example", semver.MustParse("1.0.0"), "test operation",
				func(e Bundle, deps any, input any) (output any, err error) {
					return tt.output, nil
				})

			e := NewBundle(context.Background, logger.Test(t), NewMemoryReporter())

			res, err := ExecuteOperation(e, op, nil, tt.input)
			if len(tt.wantError) != 0 {
				require.Error(t, err)
				require.ErrorContains(t, err, tt.wantError)
			} else {
				require.NoError(t, err)
				require.Nil(t, res.Err)
			}
		})
	}
}

func Test_loadPreviousSuccessfulReport(t *testing.T) {
	t.Parallel()

	version := semver.MustParse("1.0.0")
	definition := Definition{
		ID:          "plus1",
		Version:     version,
		Description: "plus 1",
	}

	tests := []struct {
		name          string
		setupReporter func() Reporter
		input         float64
		wantDef       Definition
		wantInput     float64
		wantFound     bool
	}{
		{
			name: "Failed to GetReports",
			setupReporter: func() Reporter {
				return errorReporter{
					GetReportsError: errors.New("failed to get reports"),
				}
			},
			input:     1,
			wantFound: false,
		},
		{
			name: "Successful Report found - return report",
			setupReporter: func() Reporter {
				r := NewMemoryReporter()
				err := r.AddReport(genericReport(
					NewReport(definition, 1, 2, nil),
				))
				require.NoError(t, err)

				return r
			},
			input:     1,
			wantDef:   definition,
			wantInput: 1,
			wantFound: true,
		},
		{
			name: "Report with error found - ignore report",
			setupReporter: func() Reporter {
				r := NewMemoryReporter()
				err := r.AddReport(genericReport(
					NewReport(definition, 1, 2, errors.New("failed")),
				))
				require.NoError(t, err)

				return r
			},
			input:     1,
			wantFound: false,
		},
		{
			name:      "Report not found",
			input:     1,
			wantFound: false,
		},
		{
			name:      "Current report with bad hash",
			input:     math.NaN(),
			wantFound: false,
		},
		{
			name: "Previous report with bad hash",
			setupReporter: func() Reporter {
				r := NewMemoryReporter()
				err := r.AddReport(genericReport(
					NewReport(definition, math.NaN(), 2, nil),
				))
				require.NoError(t, err)

				return r
			},
			input:     1,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bundle := NewBundle(context.Background, logger.Test(t), NewMemoryReporter())
			if tt.setupReporter != nil {
				bundle.reporter = tt.setupReporter()
			}

			report, found := loadPreviousSuccessfulReport[float64, int](bundle, definition, tt.input)
			assert.Equal(t, tt.wantFound, found)

			if tt.wantFound {
				assert.Equal(t, tt.wantDef, report.Def)
				assert.InDelta(t, tt.wantInput, report.Input, 0)
			}
		})
	}
}


func Test_ExecuteOperation_Concurrent(t *testing.T) {
	t.Parallel()

	version := semver.MustParse("1.0.0")

	op := NewOperation("increment", version, "increment by 1",
		func(b Bundle, deps any, input int) (output int, err error) {
			// Introduce a small delay to increase chance of race conditions
			time.Sleep(time.Millisecond)
			return input + 1, nil
		})

	reporter := NewMemoryReporter()
	bundle := NewBundle(context.Background, logger.Test(t), reporter)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// Channel to collect results
	type result struct {
		report Report[int, int]
		err    error
	}
	results := make(chan result, numGoroutines)

	for i := range numGoroutines {
		go func(input int) {
			defer wg.Done()

			report, err := ExecuteOperation(bundle, op, nil, input)
			results <- result{report, err}
		}(i) // Each goroutine uses its index as input
	}

	wg.Wait()
	close(results)

	for res := range results {
		require.NoError(t, res.err, "ExecuteOperation should not return an error")
		require.Nil(t, res.report.Err, "Report error should be nil")

		// Output should be input + 1
		input := res.report.Input
		expectedOutput := input + 1
		assert.Equal(t, expectedOutput, res.report.Output,
			"Output should be input + 1 for input %d", input)
	}

	// Verify reporter has all reports
	allReports, err := reporter.GetReports()
	require.NoError(t, err)

	// We expect numGoroutines reports (1 per goroutine)
	assert.Len(t, allReports, numGoroutines,
		"Reporter should have %d reports", numGoroutines)
}

type errorReporter struct {
	Reporter
	GetReportError  error
	GetReportsError error
	AddReportError  error
}

func (e errorReporter) GetReport(id string) (Report[any, any], error) {
	if e.GetReportError != nil {
		return Report[any, any]{}, e.GetReportError
	}

	return e.Reporter.GetReport(id)
}

func (e errorReporter) GetReports() ([]Report[any, any], error) {
	if e.GetReportsError != nil {
		return nil, e.GetReportsError
	}

	return e.Reporter.GetReports()
}

func (e errorReporter) AddReport(report Report[any, any]) error {
	if e.AddReportError != nil {
		return e.AddReportError
	}

	return e.Reporter.AddReport(report)
}

func Test_ExecuteOperation_WithForceExecution(t *testing.T) {
	t.Parallel()

	calls := 0
	op := NewOperation("deploy", semver.MustParse("1.0.0"), "deploy",
		func(b Bundle, deps any, input int) (int, error) {
			calls++
			return input*10 + calls, nil
		})
	reporter := NewMemoryReporter()
	bundle := NewBundle(t.Context, logger.Test(t), reporter)

	first, err := ExecuteOperation(bundle, op, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 11, first.Output)
	assert.False(t, first.Forced)

	forced, err := ExecuteOperation(bundle, op, nil, 1, WithForceExecution[int, any]())
	require.NoError(t, err)
	assert.Equal(t, 12, forced.Output)
	assert.True(t, forced.Forced)
	assert.Equal(t, 2, calls)

	// a plain rerun returns the most recent (forced) result
	again, err := ExecuteOperation(bundle, op, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, forced.ID, again.ID)
	assert.Equal(t, 12, again.Output)
	assert.Equal(t, 2, calls)

	reports, err := reporter.GetReports()
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func Test_ExecuteOperation_RetryPolicyDelay(t *testing.T) {
	t.Parallel()

	calls := 0
	op := NewOperation("flaky", semver.MustParse("1.0.0"), "flaky",
		func(b Bundle, deps any, input int) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("flaky")
			}

			return input, nil
		})
	bundle := NewBundle(t.Context, logger.Test(t), NewMemoryReporter())

	start := time.Now()
	res, err := ExecuteOperation(bundle, op, nil, 7, WithRetryConfig(RetryConfig[int, any]{
		Enabled: true,
		Policy:  RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond},
	}))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Output)
	assert.Equal(t, 3, calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func Test_ExecuteOperation_ErrorChainPreserved(t *testing.T) {
	t.Parallel()

	errSentinel := errors.New("sentinel")
	op := NewOperation("fails", semver.MustParse("1.0.0"), "fails",
		func(b Bundle, deps any, input int) (int, error) {
			return 0, NewUnrecoverableError(fmt.Errorf("wrapped: %w", errSentinel))
		})

	tests := []struct {
		name    string
		options []ExecuteOption[int, any]
	}{
		{name: "without retry"},
		{name: "with retry", options: []ExecuteOption[int, any]{WithRetry[int, any]()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bundle := NewBundle(t.Context, logger.Test(t), NewMemoryReporter())
			res, err := ExecuteOperation(bundle, op, nil, 1, tt.options...)
			require.ErrorIs(t, err, errSentinel)
			require.NotNil(t, res.Err)
			assert.Contains(t, res.Err.Message, "wrapped: sentinel")
		})
	}
}
