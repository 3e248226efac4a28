/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package socket

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/tochemey/gomq/internal/metric"
)

// registerMetrics observes the context gauges when a meter provider is set
func (ctx *Context) registerMetrics() error {
	if ctx.meterProvider == nil {
		return nil
	}

	meter := metric.New(metric.WithMeterProvider(ctx.meterProvider)).Meter()
	instruments, err := metric.NewContextMetric(meter)
	if err != nil {
		return err
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		observer.ObserveInt64(instruments.SocketsCount(), int64(ctx.socketCount()))
		observer.ObserveInt64(instruments.EndpointsCount(), int64(ctx.endpoints.Len()))
		for _, io := range ctx.ioThreads {
			observer.ObserveInt64(instruments.IOThreadsLoad(), io.getLoad(),
				otelmetric.WithAttributes(attribute.Int("iothread", io.index)))
		}
		return nil
	}, instruments.SocketsCount(), instruments.EndpointsCount(), instruments.IOThreadsLoad())
	if err != nil {
		return err
	}

	ctx.metrics = registration
	return nil
}
