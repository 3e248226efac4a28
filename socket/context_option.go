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
	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/gomq/log"
)

// ContextOption is the interface that applies a configuration option.
type ContextOption interface {
	// Apply sets the Option value of a config.
	Apply(ctx *Context)
}

// enforce compilation error
var _ ContextOption = ContextOptionFunc(nil)

// ContextOptionFunc implements the ContextOption interface.
type ContextOptionFunc func(ctx *Context)

// Apply implements ContextOption.
func (f ContextOptionFunc) Apply(ctx *Context) {
	f(ctx)
}

// WithIOThreads sets the number of I/O threads. Contexts only using the
// in-process transport can run without any.
func WithIOThreads(count int) ContextOption {
	return ContextOptionFunc(func(ctx *Context) {
		ctx.ioThreadCount = count
	})
}

// WithMaxSockets sets the maximum number of sockets open at once.
func WithMaxSockets(max int) ContextOption {
	return ContextOptionFunc(func(ctx *Context) {
		ctx.maxSockets = max
	})
}

// WithLogger sets the context logger
func WithLogger(logger log.Logger) ContextOption {
	return ContextOptionFunc(func(ctx *Context) {
		if logger != nil {
			ctx.logger = logger
		}
	})
}

// WithMeterProvider enables the context metrics on the given provider.
func WithMeterProvider(provider metric.MeterProvider) ContextOption {
	return ContextOptionFunc(func(ctx *Context) {
		ctx.meterProvider = provider
	})
}

// WithSocketDefaults sets option values applied to every socket the context
// creates, before the caller gets it.
func WithSocketDefaults(defaults map[Option]any) ContextOption {
	return ContextOptionFunc(func(ctx *Context) {
		for opt, value := range defaults {
			ctx.socketDefaults[opt] = value
		}
	})
}
