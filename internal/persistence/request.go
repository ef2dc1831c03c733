package persistence

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixbrock/chartlint/internal/app"
)

type reqConfig struct {
	Method  string
	Url     string
	Headers []string
	Body    []byte
}

// statusError carries the body of a response with an unexpected status code.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected response status code %d: %s", e.Code, e.Body)
}

// decodeError is a response with the expected status whose body could not be decoded.
type decodeError struct {
	Code int
	Err  error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("malformed response body (status %d): %s", e.Code, e.Err.Error())
}

func (e *decodeError) Unwrap() error {
	return e.Err
}

func request[T any](ctx context.Context, client *http.Client, config reqConfig, expectedResCode int) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, config.Method, config.Url, bytes.NewBuffer(config.Body))

	if err != nil {
		return nil, err
	}

	for i := 0; i < len(config.Headers); i++ {
		headerKV := strings.SplitN(config.Headers[i], ":", 2)
		if len(headerKV) != 2 {
			slog.Warn(fmt.Sprintf("skipping malformed header proto %q", headerKV[0]))
			continue
		}
		req.Header.Add(strings.TrimSpace(headerKV[0]), strings.TrimSpace(headerKV[1]))
	}

	resp, err := client.Do(req)

	if err != nil {
		return nil, err
	}

	body, err := app.Read(resp.Body)

	if err != nil {
		return nil, err
	} else if resp.StatusCode != expectedResCode {
		return nil, &statusError{Code: resp.StatusCode, Body: string(body)}
	}

	var t *T
	t, err = app.ReadJSON[T](body)

	if err != nil {
		return nil, &decodeError{Code: resp.StatusCode, Err: err}
	}

	return t, nil
}
