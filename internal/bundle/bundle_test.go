package bundle

import (
	"bytes"
	"reflect"
	"testing"

	ts "github.com/stavelang/stave/internal/typesystem"
	"github.com/stavelang/stave/internal/vm"
)

func sampleBlocks() []vm.Block {
	return []vm.Block{
		{Instrs: []vm.Instruction{
			{Op: vm.ICall, Label: "main"},
			{Op: vm.ITailCall, Label: "end"},
		}},
		{Name: "main", Instrs: []vm.Instruction{
			{Op: vm.IInt, Text: "2", Size: ts.I32},
			{Op: vm.IOffsetIf, A: -3},
			{Op: vm.IClosure, Label: "fn1", Finds: []vm.Find{{Frame: 0, Entry: 1}}},
			{Op: vm.IHandle, A: 1, B: 6, C: 0, D: 2},
			{Op: vm.IReturn},
		}},
		{Name: "end", Instrs: []vm.Instruction{{Op: vm.INop}}},
	}
}

func TestRoundTrip(t *testing.T) {
	blocks := sampleBlocks()
	decoded, err := Decode(Encode(blocks))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, blocks) {
		t.Errorf("round trip mismatch:\n%+v\nvs\n%+v", decoded, blocks)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a := Encode(sampleBlocks())
	b := Encode(sampleBlocks())
	if !bytes.Equal(a, b) {
		t.Error("encoding must be byte-identical for identical input")
	}
}

func TestFingerprintTracksContent(t *testing.T) {
	blocks := sampleBlocks()
	fp1 := Fingerprint(blocks)
	if fp1 != Fingerprint(sampleBlocks()) {
		t.Error("fingerprint must be stable")
	}
	blocks[1].Instrs[0].Text = "3"
	if fp1 == Fingerprint(blocks) {
		t.Error("fingerprint must change with content")
	}
}

func TestDecodeRejectsTampering(t *testing.T) {
	data := Encode(sampleBlocks())
	// Flip a byte in the payload section.
	data[len(data)-1] ^= 0xff
	if _, err := Decode(data); err == nil {
		t.Error("tampered bundle must be rejected")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xde, 0xad}); err == nil {
		t.Error("garbage must be rejected")
	}
}
