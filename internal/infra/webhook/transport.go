package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// Transport posts webhook payloads with fasthttp. The receiver's response is
// opaque: only a failure to send is reported.
type Transport struct {
	client  *fasthttp.Client
	timeout time.Duration
}

// NewTransport returns a Transport. timeout bounds a send when the caller's
// context carries no deadline; zero means no bound.
func NewTransport(timeout time.Duration) *Transport {
	return &Transport{
		client: &fasthttp.Client{
			Name:                "izyshow-assessment",
			MaxIdleConnDuration: 30 * time.Second,
		},
		timeout: timeout,
	}
}

func (t *Transport) Post(ctx context.Context, url, contentType string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(contentType)
	req.SetBodyRaw(body)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = t.client.DoDeadline(req, resp, deadline)
	} else if t.timeout > 0 {
		err = t.client.DoTimeout(req, resp, t.timeout)
	} else {
		err = t.client.Do(req, resp)
	}
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	return nil
}
