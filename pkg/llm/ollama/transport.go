package ollama

import (
	"io"
	"net/http"
	"strings"
)

// JSONFixingRoundTripper strips illegal escapes (e.g. \$) that some local
// models emit inside streamed JSON before the SDK decodes it.
type JSONFixingRoundTripper struct {
	Proxied http.RoundTripper
}

func (j *JSONFixingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := j.Proxied.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") || strings.Contains(ct, "application/x-ndjson") {
		resp.Body = &jsonFixingReadCloser{body: resp.Body}
	}
	return resp, nil
}

// jsonFixingReadCloser drops the backslash of any escape JSON does not define.
// It tracks escape pairs, so "\\" followed by a letter is left alone, and an
// escape split across two reads is still recognised.
type jsonFixingReadCloser struct {
	body     io.ReadCloser
	buf      []byte
	out      []byte
	escaping bool // the last byte seen opened an escape that is not emitted yet
	err      error
}

func (j *jsonFixingReadCloser) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(j.out) == 0 {
		if j.err != nil {
			if !j.escaping {
				return 0, j.err
			}
			// A lone backslash at the end of the stream is passed through.
			j.escaping = false
			j.out = append(j.out[:0], '\\')
			break
		}
		if j.buf == nil {
			j.buf = make([]byte, 4096)
		}
		n, err := j.body.Read(j.buf)
		j.out = j.fix(j.out[:0], j.buf[:n])
		j.err = err
	}

	n := copy(p, j.out)
	j.out = j.out[n:]
	return n, nil
}

func (j *jsonFixingReadCloser) fix(dst, src []byte) []byte {
	for _, b := range src {
		switch {
		case j.escaping:
			j.escaping = false
			if isJSONEscape(b) {
				dst = append(dst, '\\')
			}
			dst = append(dst, b)
		case b == '\\':
			j.escaping = true
		default:
			dst = append(dst, b)
		}
	}
	return dst
}

func isJSONEscape(b byte) bool {
	switch b {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}

func (j *jsonFixingReadCloser) Close() error {
	return j.body.Close()
}
