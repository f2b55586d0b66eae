// Package client fetches topology data from the eBPF platform backend.
//
// The topology endpoint answers with the raw topology JSON; failures come
// back as a {success, errorCode, errorMsg, data} [Envelope], usually with
// HTTP 200. [Client] accepts both shapes and turns failed envelopes and
// non-2xx statuses into [errors.BackendError].
//
// Requests are never retried:
//
//	c, err := client.New("http://127.0.0.1:8080", client.WithTimeout(10*time.Second))
//	topo, err := c.GetTopology(ctx)
//
// [errors.BackendError]: github.com/beepf/topoconsole/pkg/errors.BackendError
package client
