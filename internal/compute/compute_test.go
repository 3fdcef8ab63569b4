package compute_test

import (
	"math"
	"testing"

	"github.com/nexuslabs/nexus/internal/compute"
)

func TestRegistryResolve(t *testing.T) {
	reg := compute.DefaultRegistry()

	for _, name := range []string{"binary", "hash", "matrix", "quantum"} {
		k, err := reg.Resolve(name)
		if err != nil {
			t.Errorf("Resolve(%q): %v", name, err)
			continue
		}
		if k.Name() != name {
			t.Errorf("Resolve(%q).Name() = %q", name, k.Name())
		}
	}

	if _, err := reg.Resolve("bogus"); err == nil {
		t.Error("Resolve(bogus): expected error, got nil")
	}
}

func TestRegistryListSorted(t *testing.T) {
	infos := compute.DefaultRegistry().List()
	if len(infos) != 4 {
		t.Fatalf("List returned %d kinds, want 4", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].Name >= infos[i].Name {
			t.Errorf("List not sorted: %q before %q", infos[i-1].Name, infos[i].Name)
		}
	}
}

func TestBinaryOperations(t *testing.T) {
	tests := []struct {
		op   string
		a, b uint64
		want uint64
	}{
		{"and", 0b1100, 0b1010, 0b1000},
		{"or", 0b1100, 0b1010, 0b1110},
		{"xor", 0b1100, 0b1010, 0b0110},
		{"not", 0, 0, ^uint64(0)},
		{"shl", 1, 4, 16},
		{"shr", 16, 4, 1},
		{"rotl", 1 << 63, 1, 1},
		{"rotr", 1, 1, 1 << 63},
		{"popcount", 0xFF, 0, 8},
		{"leading_zeros", 1, 0, 63},
		{"trailing_zeros", 8, 0, 3},
		{"hamming", 0b1111, 0b1010, 2},
	}
	for _, tc := range tests {
		t.Run(tc.op, func(t *testing.T) {
			out, err := compute.Binary{}.Run(compute.Request{
				Operation: tc.op, ValueA: tc.a, ValueB: tc.b,
			}, nil)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			got := out.(compute.BinaryResult).Result
			if got != tc.want {
				t.Errorf("Run(%s, %#x, %#x) = %#x, want %#x", tc.op, tc.a, tc.b, got, tc.want)
			}
		})
	}

	if _, err := (compute.Binary{}).Run(compute.Request{Operation: "nope"}, nil); err == nil {
		t.Error("unknown operation: expected error")
	}
}

func TestHashKnownVectors(t *testing.T) {
	tests := []struct {
		op      string
		payload string
		want    string
	}{
		// sha256("abc")
		{"sha256", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		// FNV-1a 64 of "a"
		{"fnv64a", "a", "af63dc4c8601ec8c"},
		// FNV-1a 32 of ""
		{"fnv32a", "", "811c9dc5"},
	}
	for _, tc := range tests {
		t.Run(tc.op, func(t *testing.T) {
			out, err := compute.Hash{}.Run(compute.Request{Operation: tc.op, Payload: tc.payload}, nil)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			got := out.(compute.HashResult).Digest
			if got != tc.want {
				t.Errorf("digest = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestHashUsesScratch(t *testing.T) {
	scratch := make([]byte, 64)
	out, err := compute.Hash{}.Run(compute.Request{Operation: "sha256", Payload: "abc"}, scratch)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Same digest whether staged through scratch or not.
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := out.(compute.HashResult).Digest; got != want {
		t.Errorf("digest with scratch = %s, want %s", got, want)
	}
}

func TestMatrixDeterministic(t *testing.T) {
	req := compute.Request{Operation: "multiply", Rows: 16, Cols: 16, Seed: 42}
	out1, err := compute.Matrix{}.Run(req, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	out2, err := compute.Matrix{}.Run(req, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	c1 := out1.(compute.MatrixResult).Checksum
	c2 := out2.(compute.MatrixResult).Checksum
	if c1 != c2 {
		t.Errorf("same seed produced different checksums: %v vs %v", c1, c2)
	}
}

func TestMatrixIdentity(t *testing.T) {
	out, err := compute.Matrix{}.Run(compute.Request{Operation: "identity", Rows: 8, Cols: 8}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.(compute.MatrixResult).Checksum; got != 8 {
		t.Errorf("identity checksum = %v, want 8", got)
	}

	if _, err := (compute.Matrix{}).Run(compute.Request{Operation: "identity", Rows: 2, Cols: 3}, nil); err == nil {
		t.Error("non-square identity: expected error")
	}
}

func TestMatrixRejectsOversize(t *testing.T) {
	_, err := compute.Matrix{}.Run(compute.Request{Operation: "add", Rows: 1 << 11, Cols: 1 << 11}, nil)
	if err == nil {
		t.Error("oversized matrix: expected error")
	}
}

func TestQuantumHadamard(t *testing.T) {
	out, err := compute.Quantum{}.Run(compute.Request{Operation: "hadamard", Qubits: 1, Target: 0}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	norm := out.(compute.QuantumResult).Norm
	probOne := out.(compute.QuantumResult).ProbTargetOne
	if math.Abs(norm-1) > 1e-12 {
		t.Errorf("norm = %v, want 1", norm)
	}
	if math.Abs(probOne-0.5) > 1e-12 {
		t.Errorf("P(target=1) = %v, want 0.5", probOne)
	}
}

func TestQuantumPauliX(t *testing.T) {
	out, err := compute.Quantum{}.Run(compute.Request{Operation: "pauli_x", Qubits: 3, Target: 1}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.(compute.QuantumResult).ProbTargetOne; math.Abs(got-1) > 1e-12 {
		t.Errorf("P(target=1) after X = %v, want 1", got)
	}
}

func TestQuantumSuperposition(t *testing.T) {
	out, err := compute.Quantum{}.Run(compute.Request{Operation: "superposition", Qubits: 4, Target: 2}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	norm := out.(compute.QuantumResult).Norm
	probOne := out.(compute.QuantumResult).ProbTargetOne
	if math.Abs(norm-1) > 1e-12 {
		t.Errorf("norm = %v, want 1", norm)
	}
	if math.Abs(probOne-0.5) > 1e-12 {
		t.Errorf("P(target=1) = %v, want 0.5", probOne)
	}
}

func TestQuantumValidation(t *testing.T) {
	if _, err := (compute.Quantum{}).Run(compute.Request{Operation: "ground", Qubits: 0}, nil); err == nil {
		t.Error("zero qubits: expected error")
	}
	if _, err := (compute.Quantum{}).Run(compute.Request{Operation: "ground", Qubits: 2, Target: 5}, nil); err == nil {
		t.Error("target out of range: expected error")
	}
}
