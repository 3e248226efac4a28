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

package metric

import "go.opentelemetry.io/otel/metric"

// ContextMetric groups the instruments describing a messaging context.
//
// Instruments:
//   - gomq.sockets.count    (Int64ObservableGauge)
//   - gomq.endpoints.count  (Int64ObservableGauge)
//   - gomq.iothreads.load   (Int64ObservableGauge, one point per I/O thread)
type ContextMetric struct {
	socketsCount   metric.Int64ObservableGauge
	endpointsCount metric.Int64ObservableGauge
	ioThreadsLoad  metric.Int64ObservableGauge
}

// NewContextMetric creates the instruments using the provided Meter.
func NewContextMetric(meter metric.Meter) (*ContextMetric, error) {
	var instruments ContextMetric
	var err error

	if instruments.socketsCount, err = meter.Int64ObservableGauge(
		"gomq.sockets.count",
		metric.WithDescription("Number of open sockets in the context"),
	); err != nil {
		return nil, err
	}

	if instruments.endpointsCount, err = meter.Int64ObservableGauge(
		"gomq.endpoints.count",
		metric.WithDescription("Number of registered in-process endpoints"),
	); err != nil {
		return nil, err
	}

	if instruments.ioThreadsLoad, err = meter.Int64ObservableGauge(
		"gomq.iothreads.load",
		metric.WithDescription("Number of pollable objects handled by an I/O thread"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// SocketsCount returns the gauge reporting open sockets.
func (x *ContextMetric) SocketsCount() metric.Int64ObservableGauge {
	return x.socketsCount
}

// EndpointsCount returns the gauge reporting registered in-process endpoints.
func (x *ContextMetric) EndpointsCount() metric.Int64ObservableGauge {
	return x.endpointsCount
}

// IOThreadsLoad returns the gauge reporting the load of each I/O thread.
func (x *ContextMetric) IOThreadsLoad() metric.Int64ObservableGauge {
	return x.ioThreadsLoad
}
