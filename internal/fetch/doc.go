// Package fetch runs the month-by-month download loop.
//
// A Plan names the year range, the snapped bounding box and the variable
// list; the Runner walks its months strictly in order. Months whose files
// already exist in the store are skipped, which makes re-runs after a
// partial download cheap and idempotent. Missing months are retrieved
// with a flat retry policy: up to Attempts tries back to back, no
// backoff, first success wins.
//
// Every month produces a Result. A month that exhausts its attempts is
// recorded as failed and the loop moves on; only context cancellation or
// a broken store stops the run early.
//
//	runner := fetch.NewRunner(client, st, fetch.Options{Attempts: cfg.Retry.Attempts})
//	results, err := runner.Run(ctx, plan)
package fetch
