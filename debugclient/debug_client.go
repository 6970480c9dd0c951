// Package debugclient wraps an HTTP client and logs every exchange:
// requests as curl commands, responses as raw HTTP dumps.
package debugclient

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"sync"
	"sync/atomic"

	"moul.io/http2curl"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

// DebugClient is safe for concurrent use. Each request and each response
// is written to the log as one block, so blocks of concurrent calls do not
// interleave; they are numbered to be matched.
// MaxDumpBody is the largest response body written to the log.
// Responses with longer or unknown Content-Length are dumped without body.
const MaxDumpBody = 64 << 10

type DebugClient struct {
	impl HttpClient

	mu  sync.Mutex
	log io.Writer

	n atomic.Uint64
}

func New(impl HttpClient, log io.Writer) (*DebugClient, error) {
	if impl == nil {
		return nil, fmt.Errorf("debugclient: nil HTTP client")
	}
	if log == nil {
		return nil, fmt.Errorf("debugclient: nil log writer")
	}
	return &DebugClient{
		impl: impl,
		log:  log,
	}, nil
}

func (c *DebugClient) write(format string, args ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.log, format, args...)
	return err
}

func (c *DebugClient) Do(req *http.Request) (*http.Response, error) {
	n := c.n.Add(1)

	curl, err := http2curl.GetCurlCommand(req)
	if err != nil {
		return nil, fmt.Errorf("http2curl.GetCurlCommand failed for %d: %w", n, err)
	}
	if err := c.write("=== client request %d ===\n$ %s\n=== end of client request %d ===\n", n, curl, n); err != nil {
		return nil, fmt.Errorf("fmt.Fprintf(request) failed for %d: %w", n, err)
	}

	res, err := c.impl.Do(req)
	if err != nil {
		if werr := c.write("=== client request %d failed: %v ===\n", n, err); werr != nil {
			return nil, fmt.Errorf("fmt.Fprintf(error) failed for %d: %w", n, werr)
		}
		return nil, err
	}

	// Bodies of unknown or large size are left to the caller's limits.
	dumpBody := res.ContentLength >= 0 && res.ContentLength <= MaxDumpBody
	resDump, err := httputil.DumpResponse(res, dumpBody)
	if err != nil {
		res.Body.Close()
		return nil, fmt.Errorf("httputil.DumpResponse failed for %d: %w", n, err)
	}
	if !dumpBody {
		size := "unknown size"
		if res.ContentLength >= 0 {
			size = fmt.Sprintf("%d bytes", res.ContentLength)
		}
		resDump = append(resDump, fmt.Sprintf("(body of %s not dumped)\n", size)...)
	}
	if err := c.write("=== server response %d ===\n%s\n=== end of server response %d ===\n", n, string(resDump), n); err != nil {
		res.Body.Close()
		return nil, fmt.Errorf("fmt.Fprintf(response) failed for %d: %w", n, err)
	}

	return res, nil
}

func (c *DebugClient) CloseIdleConnections() {
	c.impl.CloseIdleConnections()
}
