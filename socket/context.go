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
	"fmt"
	"sync"

	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/gomq/errors"
	"github.com/tochemey/gomq/internal/validation"
	"github.com/tochemey/gomq/internal/xsync"
	"github.com/tochemey/gomq/log"
)

const (
	// DefaultIOThreads is the default number of I/O threads
	DefaultIOThreads = 1
	// DefaultMaxSockets is the default maximum number of open sockets
	DefaultMaxSockets = 1023

	termTID   = 0
	reaperTID = 1
)

// endpoint is an in-process address registered by a binding socket. The
// options are a snapshot taken when the address was bound.
type endpoint struct {
	socket *Socket
	opts   *options
}

// Context owns the sockets, the I/O threads and the reaper. Sockets of the
// same context can talk over the in-process transport.
//
// Every actor of the context has a mailbox slot. Slot 0 is where Terminate
// waits, slot 1 belongs to the reaper, then come the I/O threads and the
// sockets.
type Context struct {
	// guards the fields below up to sockets
	mu          sync.Mutex
	starting    bool
	terminating bool
	terminated  bool
	emptySlots  []int
	sockets     map[*Socket]struct{}

	slots       []*atomic.Pointer[mailbox]
	termMailbox *mailbox
	reaper      *reaper
	ioThreads   []*ioThread
	group       *errgroup.Group

	endpoints *xsync.Map[string, endpoint]
	actors    *xsync.Map[uint64, ownable]

	actorID     *atomic.Uint64
	handleID    *atomic.Uint32
	maxSocketID *atomic.Int64

	ioThreadCount  int
	maxSockets     int
	logger         log.Logger
	socketDefaults map[Option]any
	meterProvider  metric.MeterProvider
	metrics        metric.Registration
}

// NewContext creates a messaging context. Threads are only started when the
// first socket is created.
func NewContext(opts ...ContextOption) (*Context, error) {
	ctx := &Context{
		starting:       true,
		sockets:        make(map[*Socket]struct{}),
		endpoints:      xsync.NewMap[string, endpoint](),
		actors:         xsync.NewMap[uint64, ownable](),
		actorID:        atomic.NewUint64(0),
		handleID:       atomic.NewUint32(0),
		maxSocketID:    atomic.NewInt64(0),
		ioThreadCount:  DefaultIOThreads,
		maxSockets:     DefaultMaxSockets,
		logger:         log.DefaultLogger,
		socketDefaults: make(map[Option]any),
	}

	for _, opt := range opts {
		opt.Apply(ctx)
	}

	if err := ctx.validate(); err != nil {
		return nil, err
	}

	return ctx, nil
}

func (ctx *Context) validate() error {
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewRangeValidator("io-threads", ctx.ioThreadCount, 0, 64)).
		AddValidator(validation.NewMinValidator("max-sockets", ctx.maxSockets, 1))

	scratch := defaultOptions()
	for opt, value := range ctx.socketDefaults {
		if err := scratch.set(opt, value); err != nil {
			chain.AddAssertion(false, fmt.Sprintf("socket default %s: %v", opt, err))
		}
	}

	return validation.Check(chain)
}

// start creates the mailbox slots and launches the reaper and the I/O
// threads. Called with mu held.
func (ctx *Context) start() error {
	slotCount := ctx.maxSockets + ctx.ioThreadCount + 2
	ctx.slots = make([]*atomic.Pointer[mailbox], slotCount)
	for i := range ctx.slots {
		ctx.slots[i] = atomic.NewPointer[mailbox](nil)
	}

	ctx.termMailbox = newMailbox("term")
	ctx.slots[termTID].Store(ctx.termMailbox)

	ctx.reaper = newReaper(ctx, reaperTID)
	ctx.slots[reaperTID].Store(ctx.reaper.mailbox)

	ctx.ioThreads = make([]*ioThread, 0, ctx.ioThreadCount)
	for i := 0; i < ctx.ioThreadCount; i++ {
		tid := i + 2
		io := newIOThread(ctx, tid, i)
		ctx.ioThreads = append(ctx.ioThreads, io)
		ctx.slots[tid].Store(io.mailbox)
	}

	// sockets take the highest free slot first
	for i := slotCount - 1; i >= ctx.ioThreadCount+2; i-- {
		ctx.emptySlots = append(ctx.emptySlots, i)
	}

	ctx.group = new(errgroup.Group)
	ctx.group.Go(ctx.reaper.run)
	for _, io := range ctx.ioThreads {
		ctx.group.Go(io.run)
	}

	if err := ctx.registerMetrics(); err != nil {
		return err
	}

	ctx.logger.Debugf("context started with %d I/O thread(s)", ctx.ioThreadCount)
	return nil
}

// CreateSocket creates a socket of the given type.
func (ctx *Context) CreateSocket(socketType Type) (*Socket, error) {
	if !socketType.valid() {
		return nil, fmt.Errorf("type=(%d): %w", int(socketType), gerrors.ErrInvalidSocketType)
	}

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.terminating || ctx.terminated {
		return nil, gerrors.ErrTerminating
	}

	if ctx.starting {
		ctx.starting = false
		if err := ctx.start(); err != nil {
			return nil, err
		}
	}

	if len(ctx.emptySlots) == 0 {
		return nil, gerrors.ErrTooManySockets
	}

	slot := ctx.emptySlots[len(ctx.emptySlots)-1]
	ctx.emptySlots = ctx.emptySlots[:len(ctx.emptySlots)-1]

	sid := int(ctx.maxSocketID.Inc())
	s, err := newSocket(ctx, socketType, slot, sid)
	if err != nil {
		ctx.emptySlots = append(ctx.emptySlots, slot)
		return nil, err
	}

	for opt, value := range ctx.socketDefaults {
		// the defaults were validated by NewContext
		_ = s.opts.set(opt, value)
	}

	ctx.sockets[s] = struct{}{}
	ctx.slots[slot].Store(s.mailbox)
	return s, nil
}

// destroySocket frees the slot of a reaped socket
func (ctx *Context) destroySocket(s *Socket) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	tid := s.threadID()
	ctx.slots[tid].Store(nil)
	ctx.emptySlots = append(ctx.emptySlots, tid)
	delete(ctx.sockets, s)

	if ctx.terminating && len(ctx.sockets) == 0 {
		ctx.reaper.stop()
	}
}

// Terminate shuts the context down. Blocking operations on its sockets fail
// with ErrTerminating; Terminate returns once every socket has been closed
// and every thread has stopped.
func (ctx *Context) Terminate() error {
	ctx.mu.Lock()
	if ctx.terminated || ctx.terminating {
		ctx.mu.Unlock()
		return nil
	}

	if ctx.starting {
		// nothing was ever started
		ctx.starting = false
		ctx.terminated = true
		ctx.mu.Unlock()
		return nil
	}

	ctx.terminating = true
	for s := range ctx.sockets {
		s.stop()
	}
	if len(ctx.sockets) == 0 {
		ctx.reaper.stop()
	}
	ctx.mu.Unlock()

	ctx.logger.Debug("context terminating, waiting for sockets to be closed")

	for {
		cmd, ok := ctx.termMailbox.recv(-1)
		if !ok || cmd.kind == cmdDone {
			break
		}
	}

	for _, io := range ctx.ioThreads {
		io.stop()
	}

	err := ctx.group.Wait()
	if ctx.metrics != nil {
		err = multierr.Append(err, ctx.metrics.Unregister())
	}

	ctx.reaper.mailbox.close()
	for _, io := range ctx.ioThreads {
		io.mailbox.close()
	}
	ctx.termMailbox.close()

	ctx.mu.Lock()
	ctx.terminated = true
	ctx.terminating = false
	ctx.mu.Unlock()

	ctx.logger.Debug("context terminated")
	return err
}

// Logger returns the context logger
func (ctx *Context) Logger() log.Logger {
	return ctx.logger
}

func (ctx *Context) sendCommand(tid int, cmd command) {
	if tid < 0 || tid >= len(ctx.slots) {
		return
	}
	if mb := ctx.slots[tid].Load(); mb != nil {
		mb.send(cmd)
	}
}

func (ctx *Context) nextActorID() uint64 {
	return ctx.actorID.Inc()
}

func (ctx *Context) nextHandle() uint32 {
	return ctx.handleID.Inc()
}

// chooseIOThread returns the least loaded I/O thread allowed by the
// affinity mask. Ties are broken by hashing the key, so that endpoints
// spread over equally loaded threads.
func (ctx *Context) chooseIOThread(affinity uint64, key string) *ioThread {
	var (
		candidates []*ioThread
		minLoad    int64
	)

	for i, io := range ctx.ioThreads {
		if affinity != 0 && (i >= 64 || affinity&(uint64(1)<<uint(i)) == 0) {
			continue
		}
		load := io.getLoad()
		switch {
		case len(candidates) == 0 || load < minLoad:
			candidates = append(candidates[:0], io)
			minLoad = load
		case load == minLoad:
			candidates = append(candidates, io)
		}
	}

	if len(candidates) == 0 {
		return nil
	}
	return candidates[xxh3.HashString(key)%uint64(len(candidates))]
}

func (ctx *Context) registerEndpoint(addr string, s *Socket, opts *options) error {
	if !ctx.endpoints.SetIfAbsent(addr, endpoint{socket: s, opts: opts}) {
		return gerrors.NewErrAddressInUse(addr)
	}
	return nil
}

func (ctx *Context) unregisterEndpoint(addr string, s *Socket) error {
	if !ctx.endpoints.DeleteIf(addr, func(e endpoint) bool { return e.socket == s }) {
		return gerrors.NewErrEndpointNotFound(addr)
	}
	return nil
}

func (ctx *Context) unregisterEndpoints(s *Socket) {
	ctx.endpoints.DeleteFunc(func(_ string, e endpoint) bool {
		return e.socket == s
	})
}

// findEndpoint looks up an in-process address. The binder is told to expect
// a bind command before it can be destroyed.
func (ctx *Context) findEndpoint(addr string) (endpoint, error) {
	var found endpoint
	ok := ctx.endpoints.View(addr, func(e endpoint) {
		e.socket.incSeqnum()
		found = e
	})
	if !ok {
		return endpoint{}, gerrors.NewErrEndpointNotFound(addr)
	}
	return found, nil
}

func (ctx *Context) socketCount() int {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return len(ctx.sockets)
}
