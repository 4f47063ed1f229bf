// Package image implements the binary serialization of a parsed
// program: a header of length-prefixed strings terminated by a ';'
// byte, followed by a sequence of fixed-width 10-byte instruction
// chunks. It mirrors the teacher's vm.Image Save/Load pair, adapted
// from a flat Cell dump to the spec's two-section layout.
package image

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/nboxvm/nbox/asm"
	"github.com/nboxvm/nbox/value"
	"github.com/nboxvm/nbox/vmerr"
)

const (
	chunkSize         = 10
	terminator        = 0x3B // ';'
	stringPlaceholder = "$STRING$"
	maxStringLen      = 255 // fits in the header's u8 length prefix
)

// effectiveOperand returns the operand a chunk should encode for instr:
// label instructions carry their name outside the Operand union, but
// serialize as a Str-variant chunk like any other string operand.
func effectiveOperand(instr asm.Instruction) asm.Operand {
	if instr.Op == asm.OpLabel {
		return asm.Operand{Kind: asm.OperandStr, Str: instr.Label}
	}
	return instr.Operand
}

// Encode serializes prog to the binary image format.
func Encode(prog *asm.Program) ([]byte, error) {
	var header bytes.Buffer
	var body bytes.Buffer

	for _, instr := range prog.Instrs {
		operand := effectiveOperand(instr)
		body.WriteByte(byte(instr.Op))
		body.WriteByte(byte(operand.Kind))

		var payload [8]byte
		switch operand.Kind {
		case asm.OperandNone:
		case asm.OperandU8:
			payload[0] = operand.U8
		case asm.OperandI64:
			binary.LittleEndian.PutUint64(payload[:], uint64(operand.I64))
		case asm.OperandU64:
			binary.LittleEndian.PutUint64(payload[:], operand.U64)
		case asm.OperandF64:
			binary.LittleEndian.PutUint64(payload[:], math.Float64bits(operand.F64))
		case asm.OperandNaN:
			binary.LittleEndian.PutUint64(payload[:], uint64(operand.NaN))
		case asm.OperandType:
			payload[0] = byte(operand.Type)
		case asm.OperandStr:
			if len(operand.Str) > maxStringLen {
				return nil, errors.Errorf("image: string operand %q exceeds %d bytes", operand.Str, maxStringLen)
			}
			if len(operand.Str) == terminator {
				return nil, errors.Errorf("image: string operand %q has length %d, which equals the header terminator byte", operand.Str, terminator)
			}
			header.WriteByte(byte(len(operand.Str)))
			header.WriteString(operand.Str)
			copy(payload[:], stringPlaceholder)
		}
		body.Write(payload[:])
	}
	header.WriteByte(terminator)

	out := make([]byte, 0, header.Len()+body.Len())
	out = append(out, header.Bytes()...)
	out = append(out, body.Bytes()...)
	return out, nil
}

// Decode deserializes a binary image back into a Program. The location
// map is empty (positions are not carried by the image format); labels,
// entry IP, and operand values are preserved exactly.
func Decode(data []byte) (*asm.Program, error) {
	strs, offset, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	prog := &asm.Program{
		Labels: make(map[string]int),
		Locs:   make(map[int]vmerr.Position),
		Entry:  -1,
	}

	stringIdx := 0
	for offset < len(data) {
		if offset+chunkSize > len(data) {
			return nil, errors.New("image: truncated instruction chunk")
		}
		op := asm.Op(data[offset])
		if !op.IsValid() {
			return nil, errors.Errorf("image: instruction ordinal %d exceeds maximum", data[offset])
		}
		kind := asm.OperandKind(data[offset+1])
		payload := data[offset+2 : offset+chunkSize]
		offset += chunkSize

		operand, err := decodeOperand(kind, payload, strs, &stringIdx)
		if err != nil {
			return nil, err
		}

		ip := len(prog.Instrs)
		if op == asm.OpLabel {
			prog.Labels[operand.Str] = ip
			if operand.Str == "_start" {
				prog.Entry = ip
			}
			prog.Instrs = append(prog.Instrs, asm.Instruction{Op: op, Label: operand.Str})
		} else {
			prog.Instrs = append(prog.Instrs, asm.Instruction{Op: op, Operand: operand})
		}
	}

	if prog.Entry < 0 {
		return nil, vmerr.New(vmerr.NoEntryPoint, vmerr.Position{}, "image has no _start label")
	}
	return prog, nil
}

func decodeHeader(data []byte) (strs []string, offset int, err error) {
	i := 0
	for i < len(data) {
		b := data[i]
		if b == terminator {
			return strs, i + 1, nil
		}
		length := int(b)
		i++
		if i+length > len(data) {
			return nil, 0, errors.New("image: truncated string header")
		}
		strs = append(strs, string(data[i:i+length]))
		i += length
	}
	return nil, 0, errors.New("image: missing header terminator")
}

func decodeOperand(kind asm.OperandKind, payload []byte, strs []string, stringIdx *int) (asm.Operand, error) {
	switch kind {
	case asm.OperandNone:
		return asm.Operand{Kind: asm.OperandNone}, nil
	case asm.OperandU8:
		return asm.Operand{Kind: asm.OperandU8, U8: payload[0]}, nil
	case asm.OperandI64:
		return asm.Operand{Kind: asm.OperandI64, I64: int64(binary.LittleEndian.Uint64(payload))}, nil
	case asm.OperandU64:
		return asm.Operand{Kind: asm.OperandU64, U64: binary.LittleEndian.Uint64(payload)}, nil
	case asm.OperandF64:
		return asm.Operand{Kind: asm.OperandF64, F64: math.Float64frombits(binary.LittleEndian.Uint64(payload))}, nil
	case asm.OperandNaN:
		return asm.Operand{Kind: asm.OperandNaN, NaN: value.Value(binary.LittleEndian.Uint64(payload))}, nil
	case asm.OperandType:
		return asm.Operand{Kind: asm.OperandType, Type: value.Tag(payload[0])}, nil
	case asm.OperandStr:
		if *stringIdx >= len(strs) {
			return asm.Operand{}, errors.New("image: string header exhausted before body")
		}
		s := strs[*stringIdx]
		*stringIdx++
		return asm.Operand{Kind: asm.OperandStr, Str: s}, nil
	default:
		return asm.Operand{}, errors.Errorf("image: unknown operand variant %d", kind)
	}
}

// Save encodes prog and writes it to path.
func Save(path string, prog *asm.Program) error {
	data, err := Encode(prog)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o666)
}

// Load reads and decodes a binary image from path.
func Load(path string) (*asm.Program, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied image path
	if err != nil {
		return nil, errors.Wrap(err, "image: failed to read")
	}
	return Decode(data)
}
