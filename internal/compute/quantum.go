package compute

import (
	"fmt"
	"math"
)

// maxQubits caps the state vector at 2^16 amplitudes (1 MiB of complex128).
const maxQubits = 16

// Quantum implements a small state-vector simulator. The register starts in
// the all-zeros basis state; the requested gate is applied to the target
// qubit and the resulting distribution is summarized.
type Quantum struct{}

func (Quantum) Name() string { return "quantum" }

func (Quantum) Operations() []string {
	return []string{"ground", "hadamard", "pauli_x", "superposition"}
}

type QuantumResult struct {
	Operation     string  `json:"operation"`
	Qubits        int     `json:"qubits"`
	Target        int     `json:"target,omitempty"`
	Norm          float64 `json:"norm"`
	ProbTargetOne float64 `json:"prob_target_one"`
}

func (q Quantum) Run(req Request, _ []byte) (any, error) {
	n := req.Qubits
	if n < 1 || n > maxQubits {
		return nil, fmt.Errorf("quantum: qubits must be in [1,%d], got %d", maxQubits, n)
	}
	target := req.Target
	if target < 0 || target >= n {
		return nil, fmt.Errorf("quantum: target qubit %d out of range for %d qubits", target, n)
	}

	state := make([]complex128, 1<<n)
	state[0] = 1

	switch req.Operation {
	case "ground":
		// Leave |0...0> untouched.
	case "hadamard":
		applyHadamard(state, target)
	case "pauli_x":
		applyPauliX(state, target)
	case "superposition":
		// Hadamard on every qubit: uniform superposition over all basis
		// states.
		for i := 0; i < n; i++ {
			applyHadamard(state, i)
		}
	default:
		return nil, fmt.Errorf("quantum: unknown operation %q", req.Operation)
	}

	var norm, probOne float64
	for idx, amp := range state {
		p := real(amp)*real(amp) + imag(amp)*imag(amp)
		norm += p
		if idx>>target&1 == 1 {
			probOne += p
		}
	}
	return QuantumResult{
		Operation:     req.Operation,
		Qubits:        n,
		Target:        target,
		Norm:          norm,
		ProbTargetOne: probOne,
	}, nil
}

func applyHadamard(state []complex128, target int) {
	inv := complex(1/math.Sqrt2, 0)
	bit := 1 << target
	for i := range state {
		if i&bit != 0 {
			continue
		}
		a, b := state[i], state[i|bit]
		state[i] = inv * (a + b)
		state[i|bit] = inv * (a - b)
	}
}

func applyPauliX(state []complex128, target int) {
	bit := 1 << target
	for i := range state {
		if i&bit == 0 {
			state[i], state[i|bit] = state[i|bit], state[i]
		}
	}
}
