package util

import "context"

// RetryUntilSuccess calls performAction until it succeeds or the context is
// done. onError sees every failure, typically to log or back off.
func RetryUntilSuccess(ctx context.Context, performAction func() error, onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := performAction()
			if err == nil {
				return
			}
			onError(err)
		}
	}
}
