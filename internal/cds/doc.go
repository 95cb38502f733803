// Package cds talks to the Climate Data Store retrieval API.
//
// A retrieval is three HTTP steps: submit the request document against a
// dataset, poll the resulting task until the service has produced the
// file, then stream the result. Retrieve runs all three and blocks until
// the bytes are written or the context is canceled:
//
//	client, err := cds.NewClient(cds.Options{URL: endpoint, Key: "uid:secret"})
//	if err != nil { ... }
//	n, err := client.Retrieve(ctx, dataset, request, w)
//
// The client never retries on its own; callers own the retry policy so
// the total number of attempts stays under their control.
package cds
