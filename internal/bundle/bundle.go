// Package bundle serializes compiled block lists into a deterministic
// binary form. The encoding is protobuf wire format assembled by hand
// with protowire: a version header, a content fingerprint, then one
// length-delimited message per block. Byte-identical input programs
// produce byte-identical bundles, fingerprint included.
package bundle

import (
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/stavelang/stave/internal/typesystem"
	"github.com/stavelang/stave/internal/vm"
)

// Version identifies the bundle wire format.
const Version = 1

// bundleNamespace salts the SHA1 UUID fingerprint so stave bundles
// never collide with other uuid5 users.
var bundleNamespace = uuid.MustParse("8f1f9f52-0c2e-5f6a-9d8e-3f6b7c1d2a45")

// Field numbers of the top-level message.
const (
	fieldVersion     = 1
	fieldFingerprint = 2
	fieldBlock       = 3
)

// Field numbers of a block message.
const (
	fieldBlockName  = 1
	fieldBlockInstr = 2
)

// Field numbers of an instruction message.
const (
	fieldOp    = 1
	fieldA     = 2
	fieldB     = 3
	fieldC     = 4
	fieldD     = 5
	fieldLabel = 6
	fieldText  = 7
	fieldSize  = 8
	fieldFSize = 9
	fieldFind  = 10
)

// Encode serializes blocks with a leading fingerprint.
func Encode(blocks []vm.Block) []byte {
	payload := encodeBlocks(blocks)

	var out []byte
	out = protowire.AppendTag(out, fieldVersion, protowire.VarintType)
	out = protowire.AppendVarint(out, Version)
	fp := Fingerprint(blocks)
	out = protowire.AppendTag(out, fieldFingerprint, protowire.BytesType)
	out = protowire.AppendBytes(out, fp[:])
	return append(out, payload...)
}

// Fingerprint derives the deterministic SHA1 UUID of a block list.
func Fingerprint(blocks []vm.Block) uuid.UUID {
	return uuid.NewSHA1(bundleNamespace, encodeBlocks(blocks))
}

func encodeBlocks(blocks []vm.Block) []byte {
	var out []byte
	for _, b := range blocks {
		out = protowire.AppendTag(out, fieldBlock, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeBlock(b))
	}
	return out
}

func encodeBlock(b vm.Block) []byte {
	var out []byte
	if b.Name != "" {
		out = protowire.AppendTag(out, fieldBlockName, protowire.BytesType)
		out = protowire.AppendString(out, b.Name)
	}
	for _, ins := range b.Instrs {
		out = protowire.AppendTag(out, fieldBlockInstr, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeInstruction(ins))
	}
	return out
}

func encodeInstruction(ins vm.Instruction) []byte {
	var out []byte
	out = protowire.AppendTag(out, fieldOp, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(ins.Op))
	// Offsets can be negative, so operands are zigzag encoded.
	for _, f := range []struct {
		num protowire.Number
		val int
	}{{fieldA, ins.A}, {fieldB, ins.B}, {fieldC, ins.C}, {fieldD, ins.D}} {
		if f.val != 0 {
			out = protowire.AppendTag(out, f.num, protowire.VarintType)
			out = protowire.AppendVarint(out, protowire.EncodeZigZag(int64(f.val)))
		}
	}
	if ins.Label != "" {
		out = protowire.AppendTag(out, fieldLabel, protowire.BytesType)
		out = protowire.AppendString(out, ins.Label)
	}
	if ins.Text != "" {
		out = protowire.AppendTag(out, fieldText, protowire.BytesType)
		out = protowire.AppendString(out, ins.Text)
	}
	if ins.Size != 0 {
		out = protowire.AppendTag(out, fieldSize, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(ins.Size))
	}
	if ins.FSize != 0 {
		out = protowire.AppendTag(out, fieldFSize, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(ins.FSize))
	}
	for _, find := range ins.Finds {
		var fb []byte
		fb = protowire.AppendTag(fb, 1, protowire.VarintType)
		fb = protowire.AppendVarint(fb, uint64(find.Frame))
		fb = protowire.AppendTag(fb, 2, protowire.VarintType)
		fb = protowire.AppendVarint(fb, uint64(find.Entry))
		out = protowire.AppendTag(out, fieldFind, protowire.BytesType)
		out = protowire.AppendBytes(out, fb)
	}
	return out
}

// Decode parses a bundle back into blocks, verifying the version and
// the fingerprint.
func Decode(data []byte) ([]vm.Block, error) {
	var blocks []vm.Block
	var fp []byte
	sawVersion := false

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("corrupt bundle: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldVersion:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("corrupt bundle: bad version")
			}
			if v != Version {
				return nil, fmt.Errorf("unsupported bundle version %d", v)
			}
			sawVersion = true
			data = data[n:]
		case fieldFingerprint:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("corrupt bundle: bad fingerprint")
			}
			fp = b
			data = data[n:]
		case fieldBlock:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("corrupt bundle: bad block")
			}
			block, err := decodeBlock(b)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("corrupt bundle: bad field %d", num)
			}
			data = data[n:]
		}
	}

	if !sawVersion {
		return nil, fmt.Errorf("corrupt bundle: missing version")
	}
	want := Fingerprint(blocks)
	if len(fp) != len(want) || string(fp) != string(want[:]) {
		return nil, fmt.Errorf("bundle fingerprint mismatch")
	}
	return blocks, nil
}

func decodeBlock(data []byte) (vm.Block, error) {
	var b vm.Block
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return b, fmt.Errorf("corrupt block: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldBlockName:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return b, fmt.Errorf("corrupt block: bad name")
			}
			b.Name = s
			data = data[n:]
		case fieldBlockInstr:
			raw, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return b, fmt.Errorf("corrupt block: bad instruction")
			}
			ins, err := decodeInstruction(raw)
			if err != nil {
				return b, err
			}
			b.Instrs = append(b.Instrs, ins)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return b, fmt.Errorf("corrupt block: bad field %d", num)
			}
			data = data[n:]
		}
	}
	return b, nil
}

func decodeInstruction(data []byte) (vm.Instruction, error) {
	var ins vm.Instruction
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return ins, fmt.Errorf("corrupt instruction: bad tag")
		}
		data = data[n:]

		switch num {
		case fieldOp, fieldSize, fieldFSize:
			v, vn := protowire.ConsumeVarint(data)
			if vn < 0 {
				return ins, fmt.Errorf("corrupt instruction: bad varint")
			}
			switch num {
			case fieldOp:
				ins.Op = vm.Opcode(v)
			case fieldSize:
				ins.Size = typesystem.IntSize(v)
			case fieldFSize:
				ins.FSize = typesystem.FloatSize(v)
			}
			data = data[vn:]
		case fieldA, fieldB, fieldC, fieldD:
			v, vn := protowire.ConsumeVarint(data)
			if vn < 0 {
				return ins, fmt.Errorf("corrupt instruction: bad operand")
			}
			val := int(protowire.DecodeZigZag(v))
			switch num {
			case fieldA:
				ins.A = val
			case fieldB:
				ins.B = val
			case fieldC:
				ins.C = val
			case fieldD:
				ins.D = val
			}
			data = data[vn:]
		case fieldLabel, fieldText:
			s, sn := protowire.ConsumeString(data)
			if sn < 0 {
				return ins, fmt.Errorf("corrupt instruction: bad string")
			}
			if num == fieldLabel {
				ins.Label = s
			} else {
				ins.Text = s
			}
			data = data[sn:]
		case fieldFind:
			raw, rn := protowire.ConsumeBytes(data)
			if rn < 0 {
				return ins, fmt.Errorf("corrupt instruction: bad find")
			}
			var find vm.Find
			fdata := raw
			for len(fdata) > 0 {
				fnum, ftyp, fn := protowire.ConsumeTag(fdata)
				if fn < 0 {
					return ins, fmt.Errorf("corrupt find")
				}
				fdata = fdata[fn:]
				v, vn := protowire.ConsumeVarint(fdata)
				if vn < 0 {
					return ins, fmt.Errorf("corrupt find value")
				}
				switch fnum {
				case 1:
					find.Frame = int(v)
				case 2:
					find.Entry = int(v)
				default:
					_ = ftyp
				}
				fdata = fdata[vn:]
			}
			ins.Finds = append(ins.Finds, find)
			data = data[rn:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return ins, fmt.Errorf("corrupt instruction: bad field %d", num)
			}
			data = data[n:]
		}
	}
	return ins, nil
}
