package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tournevent/lalamove/pkg/lalamove"
)

var (
	errDriverWaitTimeout = errors.New("timed out waiting for a driver")
	errOrderClosed       = errors.New("order closed before a driver was assigned")
)

// waitForDriver polls orderID until Lalamove reports a driver on it, the
// order closes without one, or timeout elapses. Cancelling ctx stops the wait
// with ctx's error.
func waitForDriver(ctx context.Context, api lalamove.APIClient, orderID string, interval, timeout time.Duration) (*lalamove.Order, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid poll interval %s: must be positive", interval)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout %s: must be positive", timeout)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		order, err := api.GetOrder(waitCtx, orderID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if waitCtx.Err() != nil {
				return nil, fmt.Errorf("order %s: %w", orderID, errDriverWaitTimeout)
			}
			return nil, err
		}

		if order.DriverID != "" {
			return order, nil
		}
		switch order.Status {
		case lalamove.StatusCanceled, lalamove.StatusRejected, lalamove.StatusExpired, lalamove.StatusCompleted:
			return nil, fmt.Errorf("order %s is %s: %w", orderID, order.Status, errOrderClosed)
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("order %s still %s: %w", orderID, order.Status, errDriverWaitTimeout)
		case <-ticker.C:
		}
	}
}
