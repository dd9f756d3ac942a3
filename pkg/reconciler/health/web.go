/*
Copyright © contributors to CloudNativePG, established as
CloudNativePG a Series of LF Projects, LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"k8s.io/client-go/util/jsonpath"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
)

const (
	webRetryAttempts = 3
	webRetryDelay    = 500 * time.Millisecond
	maxResponseSize  = 1 << 20
)

// permanentError is an error that retrying the request will not fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// WebProvider reads a number from a JSON document served over HTTP
type WebProvider struct {
	client *http.Client
}

// NewWebProvider creates a provider using the passed timeout for
// every request
func NewWebProvider(timeout time.Duration) *WebProvider {
	return &WebProvider{
		client: &http.Client{Timeout: timeout},
	}
}

// Type implements Provider
func (p *WebProvider) Type() string {
	return "web"
}

// Measure implements Provider
func (p *WebProvider) Measure(ctx context.Context, metric *apiv1.Metric) (float64, error) {
	web := metric.Provider.Web

	var body []byte
	err := retry.New(
		retry.Attempts(webRetryAttempts),
		retry.Delay(webRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var permanent *permanentError
			return !errors.As(err, &permanent) && ctx.Err() == nil
		}),
	).Do(func() error {
		var err error
		body, err = p.get(ctx, web)
		return err
	})
	if err != nil {
		return 0, err
	}

	return valueFromJSON(body, web.JSONPath)
}

func (p *WebProvider) get(ctx context.Context, web *apiv1.WebMetric) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, web.URL, nil)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("invalid request: %w", err)}
	}
	for _, header := range web.Headers {
		req.Header.Set(header.Key, header.Value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("while calling %s: %w", web.URL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("while reading the response of %s: %w", web.URL, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%s replied with status %d", web.URL, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, &permanentError{err: fmt.Errorf("%s replied with status %d", web.URL, resp.StatusCode)}
	}

	return body, nil
}

// valueFromJSON extracts a number from a JSON document following a
// JSONPath expression. Without an expression the whole document must
// be a number.
func valueFromJSON(body []byte, path string) (float64, error) {
	var document interface{}
	if err := json.Unmarshal(body, &document); err != nil {
		return 0, fmt.Errorf("invalid JSON response: %w", err)
	}

	if path == "" {
		return toFloat(document)
	}

	if !strings.HasPrefix(path, "{") {
		path = "{" + path + "}"
	}

	parser := jsonpath.New("metric")
	if err := parser.Parse(path); err != nil {
		return 0, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}

	results, err := parser.FindResults(document)
	if err != nil {
		return 0, fmt.Errorf("while evaluating JSONPath %q: %w", path, err)
	}
	if len(results) == 0 || len(results[0]) == 0 {
		return 0, fmt.Errorf("JSONPath %q matched nothing", path)
	}

	return toFloat(results[0][0].Interface())
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		result, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", v)
		}
		return result, nil
	default:
		return 0, fmt.Errorf("value of type %T is not a number", value)
	}
}
