// Package config loads optional TOML-based tuning of the VM's stack,
// call-stack, and heap capacities. Absent a config file, the spec's
// hardwired defaults apply.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/nboxvm/nbox/heap"
	"github.com/nboxvm/nbox/vmcore"
)

// Limits holds the VM's configurable capacities. Memory size is not
// configurable: it is a fixed 8192-byte array per the spec's data
// model.
type Limits struct {
	Stack struct {
		OperandCap int `toml:"operand_cap"`
		CallCap    int `toml:"call_cap"`
	} `toml:"stack"`

	Heap struct {
		InitialCapacity int `toml:"initial_capacity"`
		Cap             int `toml:"cap"`
	} `toml:"heap"`
}

// Default returns the limits matching the spec's hardwired defaults.
func Default() Limits {
	var l Limits
	l.Stack.OperandCap = vmcore.DefaultOperandCap
	l.Stack.CallCap = vmcore.DefaultCallCap
	l.Heap.InitialCapacity = heap.InitialCapacity
	l.Heap.Cap = heap.Cap
	return l
}

// Load reads limits from path. A missing file is not an error: Default
// limits are returned unchanged.
func Load(path string) (Limits, error) {
	l := Default()
	if path == "" {
		return l, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return l, nil
	}
	if _, err := toml.DecodeFile(path, &l); err != nil {
		return Limits{}, errors.Wrapf(err, "config: failed to parse %s", path)
	}
	return l, nil
}

// Options translates Limits into the vmcore.Option values that apply
// them to a new Instance.
func (l Limits) Options() []vmcore.Option {
	return []vmcore.Option{
		vmcore.WithCapacities(l.Stack.OperandCap, l.Stack.CallCap),
		vmcore.WithHeapLimits(l.Heap.InitialCapacity, l.Heap.Cap),
	}
}
