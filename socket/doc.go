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

// Package socket implements message queueing sockets in the style of
// ZeroMQ.
//
// A Context owns sockets, a reaper and a pool of I/O threads. Sockets bind
// and connect to endpoints over the inproc, tcp, ipc, pgm and epgm
// transports and exchange multi-frame messages according to their Type:
// PAIR, PUB, SUB, XPUB, XSUB, REQ, REP, DEALER, ROUTER, PULL, PUSH and
// STREAM.
//
// Every socket, session, listener and connecter is an actor. Actors never
// share state: they post commands to each other's mailbox, and messages
// flow between them through pipes bounded by high water marks. A socket
// processes its commands when it is used, so a Socket must only be used by
// one goroutine at a time. Close hands the socket to the reaper, which
// finishes the shutdown in the background.
//
//	ctx, err := socket.NewContext()
//	if err != nil {
//		return err
//	}
//	defer ctx.Terminate()
//
//	pull, _ := ctx.CreateSocket(socket.Pull)
//	defer pull.Close()
//	if err := pull.Bind("tcp://127.0.0.1:5555"); err != nil {
//		return err
//	}
//
//	frames, err := pull.RecvMultipart()
package socket
