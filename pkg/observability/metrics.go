// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics records service metrics through OpenTelemetry instruments exported
// to a private Prometheus registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
	meter    metric.Meter

	httpRequests       metric.Int64Counter
	httpDuration       metric.Float64Histogram
	llmDuration        metric.Float64Histogram
	llmErrors          metric.Int64Counter
	llmTokens          metric.Int64Counter
	rateLimited        metric.Int64Counter
	contactSubmissions metric.Int64Counter
}

// InitMetrics creates the metric instruments. A disabled config returns nil.
func InitMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(promExporter))
	meter := provider.Meter(instrumentationName)

	m := &Metrics{registry: registry, provider: provider, meter: meter}

	if m.httpRequests, err = meter.Int64Counter(
		"folio_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	if m.httpDuration, err = meter.Float64Histogram(
		"folio_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	if m.llmDuration, err = meter.Float64Histogram(
		"folio_llm_request_duration_seconds",
		metric.WithDescription("LLM request duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}

	if m.llmErrors, err = meter.Int64Counter(
		"folio_llm_errors_total",
		metric.WithDescription("Total LLM errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm errors counter: %w", err)
	}

	if m.llmTokens, err = meter.Int64Counter(
		"folio_llm_tokens_total",
		metric.WithDescription("Total tokens reported by the LLM provider"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm tokens counter: %w", err)
	}

	if m.rateLimited, err = meter.Int64Counter(
		"folio_rate_limit_denied_total",
		metric.WithDescription("Total requests rejected by the rate limiter"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit counter: %w", err)
	}

	if m.contactSubmissions, err = meter.Int64Counter(
		"folio_contact_submissions_total",
		metric.WithDescription("Total accepted contact form submissions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create contact counter: %w", err)
	}

	return m, nil
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSessions registers a gauge reporting the number of live sessions.
func (m *Metrics) ObserveSessions(count func() int) error {
	if m == nil {
		return nil
	}
	_, err := m.meter.Int64ObservableGauge(
		"folio_sessions_active",
		metric.WithDescription("Sessions currently held in memory"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(count()))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create sessions gauge: %w", err)
	}
	return nil
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLLMRequest records one provider call.
func (m *Metrics) RecordLLMRequest(ctx context.Context, provider, model string, duration time.Duration, totalTokens int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	)
	m.llmDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.llmErrors.Add(ctx, 1, attrs)
		return
	}
	if totalTokens > 0 {
		m.llmTokens.Add(ctx, int64(totalTokens), attrs)
	}
}

// RecordRateLimited records a rejected request for the given window.
func (m *Metrics) RecordRateLimited(ctx context.Context, window string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("window", window)))
}

// RecordContactSubmission records an accepted contact form.
func (m *Metrics) RecordContactSubmission(ctx context.Context) {
	if m == nil {
		return
	}
	m.contactSubmissions.Add(ctx, 1)
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
