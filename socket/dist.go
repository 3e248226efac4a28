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

// distribution sends each message to a set of pipes. Pipes are kept in
// three nested prefixes: matching pipes receive the current message, active
// pipes have credit, eligible pipes will become active at the end of the
// current message.
type distribution struct {
	pipes    pipeArray
	matching int
	active   int
	eligible int
	more     bool
}

func (d *distribution) attach(p *pipe) {
	d.pipes = append(d.pipes, p)
	if d.more {
		// joined in the middle of a message, wait for the next one
		d.pipes.swap(d.eligible, len(d.pipes)-1)
		d.eligible++
		return
	}
	d.pipes.swap(d.active, len(d.pipes)-1)
	d.active++
	d.eligible++
}

// match adds the pipe to the receivers of the current message
func (d *distribution) match(p *pipe) {
	idx := d.pipes.index(p)
	if idx < d.matching || idx >= d.eligible {
		return
	}
	d.pipes.swap(idx, d.matching)
	d.matching++
}

func (d *distribution) unmatch() {
	d.matching = 0
}

func (d *distribution) terminated(p *pipe) {
	if d.pipes.index(p) < 0 {
		return
	}
	if d.pipes.index(p) < d.matching {
		d.pipes.swap(d.pipes.index(p), d.matching-1)
		d.matching--
	}
	if d.pipes.index(p) < d.active {
		d.pipes.swap(d.pipes.index(p), d.active-1)
		d.active--
	}
	if d.pipes.index(p) < d.eligible {
		d.pipes.swap(d.pipes.index(p), d.eligible-1)
		d.eligible--
	}
	d.pipes.erase(p)
}

func (d *distribution) activated(p *pipe) {
	idx := d.pipes.index(p)
	if idx < 0 {
		return
	}
	d.pipes.swap(idx, d.eligible)
	d.eligible++
	if !d.more {
		d.pipes.swap(d.eligible-1, d.active)
		d.active++
	}
}

func (d *distribution) sendToAll(msg *Msg) error {
	d.matching = d.active
	return d.sendToMatching(msg)
}

func (d *distribution) sendToMatching(msg *Msg) error {
	more := msg.More()
	d.distribute(msg)
	if !more {
		d.active = d.eligible
	}
	d.more = more
	msg.Init()
	return nil
}

func (d *distribution) distribute(msg *Msg) {
	for i := 0; i < d.matching; i++ {
		if !d.write(d.pipes[i], msg) {
			i--
		}
	}
}

func (d *distribution) write(p *pipe, msg *Msg) bool {
	if !p.write(msg) {
		d.pipes.swap(d.pipes.index(p), d.matching-1)
		d.matching--
		d.pipes.swap(d.pipes.index(p), d.active-1)
		d.active--
		d.pipes.swap(d.active, d.eligible-1)
		d.eligible--
		return false
	}
	if !msg.More() {
		p.flush()
	}
	return true
}

func (d *distribution) hasOut() bool {
	return true
}
