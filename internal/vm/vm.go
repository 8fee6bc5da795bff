// Package vm executes a lowered AIR instruction sequence on a register
// machine: a sparse register file, a fixed-size byte-addressable memory, and
// a permanently-accumulating condition-flag mask. Results stream to the host
// over a bounded channel as Yield/Fault/Done messages rather than being
// returned from a single blocking call, mirroring the host interpreter's
// device-bus model of pushing results out through channels instead of
// return values.
package vm

import (
	"context"
	"fmt"

	"github.com/loomlang/loom/internal/air"
	"github.com/loomlang/loom/internal/diagnostic"
)

const (
	// DefaultMemorySize is the byte-addressable memory size used when a
	// Config leaves MemorySize unset.
	DefaultMemorySize = 256
	// DefaultChannelCapacity bounds the number of in-flight messages the VM
	// may have queued before a send blocks waiting for the host to drain.
	DefaultChannelCapacity = 64
)

// MessageKind discriminates the three shapes a Message can take.
type MessageKind int

const (
	MsgYield MessageKind = iota
	MsgFault
	MsgDone
)

// Message is one event emitted by a running VM. Exactly one of Value/Fault
// is meaningful, selected by Kind.
type Message struct {
	Kind  MessageKind
	Value uint32
	Fault *diagnostic.RuntimeFault
}

func yieldMessage(v uint32) Message              { return Message{Kind: MsgYield, Value: v} }
func doneMessage() Message                        { return Message{Kind: MsgDone} }
func faultMessage(f *diagnostic.RuntimeFault) Message { return Message{Kind: MsgFault, Fault: f} }

// Config tunes a VM's memory size, channel buffering, and logging verbosity.
// New replaces a zero MemorySize or ChannelCapacity with its default;
// DefaultConfig also sets the default verbosity.
type Config struct {
	MemorySize      int
	ChannelCapacity int32
	Verbosity       diagnostic.Verbosity
}

// DefaultConfig returns the configuration used when a caller has no
// overrides: 256 bytes of memory, a 64-message channel, normal verbosity.
func DefaultConfig() Config {
	return Config{
		MemorySize:      DefaultMemorySize,
		ChannelCapacity: DefaultChannelCapacity,
		Verbosity:       diagnostic.Default,
	}
}

// ValidateMemorySize rejects a memory size that isn't a positive multiple of
// the machine's 4-byte word size, the way the reference configuration
// validation does rather than silently rounding or truncating.
func ValidateMemorySize(n int) error {
	if n <= 0 || n%4 != 0 {
		return fmt.Errorf("memory size must be a positive multiple of 4, got %d", n)
	}
	return nil
}

// VM is a single-goroutine register machine. Callers drive it with Run,
// typically from a dedicated goroutine, and drain Messages from the channel
// returned by New.
type VM struct {
	instructions []air.Instruction
	registers    map[air.Register]uint32
	memory       []byte
	pc           int
	flags        uint16
	labels       map[string]int
	out          *boundedChan[Message]
	verbosity    diagnostic.Verbosity
}

// New builds a VM ready to execute instructions and returns the read-only
// channel its messages arrive on. The channel is closed once Run sends Done.
func New(instructions []air.Instruction, cfg Config) (*VM, <-chan Message) {
	if cfg.MemorySize <= 0 {
		cfg.MemorySize = DefaultMemorySize
	}
	if cfg.ChannelCapacity <= 0 {
		cfg.ChannelCapacity = DefaultChannelCapacity
	}

	labels := make(map[string]int)
	for i, inst := range instructions {
		if inst.Op == air.OpLBL {
			if _, seen := labels[inst.Label]; !seen {
				labels[inst.Label] = i
			}
		}
	}

	out := newBoundedChan[Message](cfg.ChannelCapacity)
	m := &VM{
		instructions: instructions,
		registers:    make(map[air.Register]uint32),
		memory:       make([]byte, cfg.MemorySize),
		labels:       labels,
		out:          out,
		verbosity:    cfg.Verbosity,
		// Al is permanently set: it is never cleared and requires no
		// preceding CMP, matching the "always true" condition code.
		flags: air.Al.Bit(),
	}
	return m, out.receiveChan()
}

// Run drives the fetch-execute loop to completion, sending a Fault message
// (if the program faults) followed unconditionally by Done, then closes the
// channel. It honors ctx cancellation between instructions. A recover()
// guards the loop as a last-resort safety net against a bug in the
// interpreter itself; it logs and still delivers Done so a draining host
// never blocks forever.
func (m *VM) Run(ctx context.Context) {
	defer m.out.close()
	defer func() {
		if r := recover(); r != nil {
			diagnostic.Log.Errorf("vm: recovered from internal panic: %v", r)
			m.out.send(doneMessage())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			m.out.send(doneMessage())
			return
		default:
		}

		more, fault := m.step()
		if fault != nil {
			m.out.send(faultMessage(fault))
			m.out.send(doneMessage())
			return
		}
		if !more {
			m.out.send(doneMessage())
			return
		}
	}
}
