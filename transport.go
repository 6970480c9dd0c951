package magnet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// HttpClient is the transport used to execute requests.
// *http.Client implements it.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

const chunkSize = 1024

func newHttpClient(connectTimeout, readTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.ResponseHeaderTimeout = readTimeout
	return &http.Client{Transport: transport}
}

// encodeRequest materializes a bound RequestSpec as an *http.Request.
func encodeRequest(ctx context.Context, spec *RequestSpec, requestIDHeader string) (*http.Request, error) {
	body, contentType, err := encodeBody(spec)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, spec.method, spec.URL(), reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if requestIDHeader != "" {
		request.Header.Set(requestIDHeader, uuid.NewString())
	}
	if spec.hasExplicitHeaders {
		for name, value := range spec.headers {
			request.Header.Set(name, value)
		}
	}
	return request, nil
}

func encodeBody(spec *RequestSpec) ([]byte, string, error) {
	if spec.hasMultipart {
		return encodeParts(spec.parts)
	}
	if !spec.hasBody {
		return nil, "", nil
	}
	contentType := ""
	switch spec.kind {
	case bodyCodec:
		contentType = spec.codec.ContentType()
	case bodyForm:
		contentType = "application/x-www-form-urlencoded"
	case bodyNone:
	}
	return []byte(spec.body), contentType, nil
}

// encodeParts writes files as multipart/form-data fields in field order.
// The file name of a part is the base name of the file.
func encodeParts(parts map[string]partFile) ([]byte, string, error) {
	fields := make([]string, 0, len(parts))
	for field := range parts {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	chunk := make([]byte, chunkSize)
	for _, field := range fields {
		part := parts[field]
		fw, err := w.CreateFormFile(field, filepath.Base(part.name()))
		if err != nil {
			return nil, "", err
		}
		if err := copyPart(fw, part, chunk); err != nil {
			return nil, "", fmt.Errorf("failed to write part %q: %w", field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func copyPart(w io.Writer, part partFile, chunk []byte) error {
	if part.file != nil {
		_, err := io.CopyBuffer(w, onlyReader{part.file}, chunk)
		return err
	}
	f, err := os.Open(part.path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.CopyBuffer(w, onlyReader{f}, chunk)
	return err
}

// onlyReader hides WriterTo/ReaderFrom so io.CopyBuffer really copies
// through the fixed size chunk.
type onlyReader struct {
	io.Reader
}

// idleReader fails reads of a response body once no read has completed
// within timeout. The request is canceled to unblock a pending read.
type idleReader struct {
	body    io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleReader(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleReader {
	r := &idleReader{
		body:    body,
		timeout: timeout,
	}
	r.timer = time.AfterFunc(timeout, func() {
		r.expired.Store(true)
		cancel()
	})
	return r
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if r.expired.Load() {
		return n, fmt.Errorf("no response data for %v: %w", r.timeout, os.ErrDeadlineExceeded)
	}
	if err == nil {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (r *idleReader) Close() error {
	r.timer.Stop()
	return r.body.Close()
}

// IsOffline reports whether err means the server could not be reached in
// time: a timeout or a host name that does not resolve.
func IsOffline(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
