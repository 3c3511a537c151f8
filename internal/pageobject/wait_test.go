package pageobject

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaiterUntil(t *testing.T) {
	conditionErr := errors.New("node detached")
	testCases := []struct {
		name          string
		condition     func(context.Context) (bool, error)
		expectTimeout bool
		expectedErr   error
	}{
		{
			name:      "satisfied",
			condition: func(context.Context) (bool, error) { return true, nil },
		},
		{
			name:          "never satisfied",
			condition:     func(context.Context) (bool, error) { return false, nil },
			expectTimeout: true,
		},
		{
			name: "condition blocks past the deadline",
			condition: func(ctx context.Context) (bool, error) {
				<-ctx.Done()
				return false, ctx.Err()
			},
			expectTimeout: true,
			expectedErr:   context.DeadlineExceeded,
		},
		{
			name:        "condition fails before the deadline",
			condition:   func(context.Context) (bool, error) { return false, conditionErr },
			expectedErr: conditionErr,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			barrier := waiter{page: newFakePage(), interval: time.Millisecond, timeout: 20 * time.Millisecond}
			waitErr := barrier.until(context.Background(), "test condition", testCase.condition)
			if !testCase.expectTimeout && testCase.expectedErr == nil {
				require.NoError(testingT, waitErr)
				return
			}
			if testCase.expectTimeout {
				require.ErrorIs(testingT, waitErr, ErrWaitTimeout)
			} else {
				require.NotErrorIs(testingT, waitErr, ErrWaitTimeout)
			}
			if testCase.expectedErr != nil {
				require.ErrorIs(testingT, waitErr, testCase.expectedErr)
			}
		})
	}
}

func TestWaiterUntilCancelledIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	barrier := waiter{page: newFakePage(), interval: time.Millisecond, timeout: time.Second}

	waitErr := barrier.until(ctx, "test condition", func(conditionContext context.Context) (bool, error) {
		cancel()
		<-conditionContext.Done()
		return false, conditionContext.Err()
	})
	require.ErrorIs(t, waitErr, context.Canceled)
	require.NotErrorIs(t, waitErr, ErrWaitTimeout)
}
