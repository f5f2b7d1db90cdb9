package llm

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const maxBodyBytes = 8 * 1024 * 1024

type decodedBody struct {
	io.Reader
	closers []func() error
}

func (b *decodedBody) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// decodeBody unwraps resp.Body according to Content-Encoding. Compression is
// negotiated by hand because the transport has DisableCompression set.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	body := &decodedBody{Reader: resp.Body, closers: []func() error{resp.Body.Close}}
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("llm: invalid gzip body: %w", err)
		}
		body.Reader = zr
		body.closers = append([]func() error{zr.Close}, body.closers...)
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("llm: invalid zstd body: %w", err)
		}
		body.Reader = zr
		body.closers = append([]func() error{func() error { zr.Close(); return nil }}, body.closers...)
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("llm: unsupported content-encoding: %s", resp.Header.Get("Content-Encoding"))
	}
	return body, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(io.LimitReader(body, maxBodyBytes))
}

func truncateForLog(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func newStreamingHTTPClient() *http.Client {
	tr, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Client{Timeout: 0}
	}
	cloned := tr.Clone()
	// SSE streams are safer without transparent gzip decoding, which can surface
	// truncated-compression errors as unexpected EOF before any chunk is parsed.
	cloned.DisableCompression = true
	return &http.Client{
		Timeout:   0,
		Transport: cloned,
	}
}
