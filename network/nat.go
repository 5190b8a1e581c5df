// This file is part of intcode - https://github.com/db47h/intcode
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
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

package network

import "github.com/db47h/intcode/vm"

// Packet is a network packet. Dest is the destination address.
type Packet struct {
	Dest vm.Cell
	X, Y vm.Cell
}

// NAT monitors network activity. It keeps the last packet sent to its address
// and sends it to address 0 once the network has been idle for Threshold
// consecutive rounds.
type NAT struct {
	Threshold int

	last     Packet
	captured bool
	idle     int
	first    vm.Cell
	hasFirst bool
	prevY    vm.Cell
	hasPrev  bool
}

// NewNAT returns a new NAT that fires after threshold idle rounds.
func NewNAT(threshold int) *NAT {
	if threshold < 1 {
		threshold = 1
	}
	return &NAT{Threshold: threshold}
}

// Capture stores a packet sent to the NAT address, replacing any previous one.
func (n *NAT) Capture(x, y vm.Cell) {
	n.last = Packet{X: x, Y: y}
	n.captured = true
	if !n.hasFirst {
		n.first, n.hasFirst = y, true
	}
}

// Tick records the outcome of a poll round. An active round resets the idle
// count. Once the idle count reaches the threshold and a packet has been
// captured, Tick resets the count and returns that packet, addressed to 0.
func (n *NAT) Tick(active bool) (Packet, bool) {
	if active {
		n.idle = 0
		return Packet{}, false
	}
	n.idle++
	if n.idle < n.Threshold || !n.captured {
		return Packet{}, false
	}
	n.idle = 0
	return n.last, true
}

// Delivered records that y was delivered to address 0. It returns true if y
// is the same as the previously delivered value.
func (n *NAT) Delivered(y vm.Cell) bool {
	done := n.hasPrev && n.prevY == y
	n.prevY, n.hasPrev = y, true
	return done
}

// Idle returns the number of consecutive idle rounds.
func (n *NAT) Idle() int { return n.idle }

// Captured returns true once a packet has been sent to the NAT.
func (n *NAT) Captured() bool { return n.captured }

// First returns the Y value of the first packet sent to the NAT.
func (n *NAT) First() (vm.Cell, bool) { return n.first, n.hasFirst }
