package pageobject

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/browser"
)

// ErrWaitTimeout indicates a wait barrier whose condition never held.
var ErrWaitTimeout = errors.New("pageobject: wait barrier timed out")

type waiter struct {
	page     browser.Page
	interval time.Duration
	timeout  time.Duration
}

// until polls condition until it reports true, the timeout passes or the context ends.
func (barrier waiter) until(ctx context.Context, description string, condition func(context.Context) (bool, error)) error {
	waitContext, cancel := context.WithTimeout(ctx, barrier.timeout)
	defer cancel()
	ticker := time.NewTicker(barrier.interval)
	defer ticker.Stop()
	for {
		satisfied, conditionErr := condition(waitContext)
		if conditionErr != nil {
			if waitContext.Err() != nil && ctx.Err() == nil {
				return fmt.Errorf("%w: %s: %w", ErrWaitTimeout, description, conditionErr)
			}
			return conditionErr
		}
		if satisfied {
			return nil
		}
		select {
		case <-waitContext.Done():
			return fmt.Errorf("%w: %s: %w", ErrWaitTimeout, description, waitContext.Err())
		case <-ticker.C:
		}
	}
}

// forAny polls until one of the locators matches an element and returns its index.
func (barrier waiter) forAny(ctx context.Context, locators ...browser.Locator) (int, error) {
	matched := -1
	waitErr := barrier.until(ctx, fmt.Sprint(locators), func(ctx context.Context) (bool, error) {
		for index, locator := range locators {
			count, countErr := barrier.page.Count(ctx, locator)
			if countErr != nil {
				return false, countErr
			}
			if count > 0 {
				matched = index
				return true, nil
			}
		}
		return false, nil
	})
	return matched, waitErr
}

// forCount polls until the locator matches exactly count elements.
func (barrier waiter) forCount(ctx context.Context, locator browser.Locator, count int) error {
	return barrier.until(ctx, locator.String(), func(ctx context.Context) (bool, error) {
		current, countErr := barrier.page.Count(ctx, locator)
		return current == count, countErr
	})
}

func (barrier waiter) formSettled(ctx context.Context) error {
	return barrier.until(ctx, "widget form reload", func(ctx context.Context) (bool, error) {
		var loading bool
		if evaluateErr := barrier.page.Evaluate(ctx, formLoadingScript, &loading); evaluateErr != nil {
			return false, evaluateErr
		}
		return !loading, nil
	})
}
