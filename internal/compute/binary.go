package compute

import (
	"fmt"
	"math/bits"
)

// Binary implements 64-bit word operations.
type Binary struct{}

func (Binary) Name() string { return "binary" }

func (Binary) Operations() []string {
	return []string{
		"and", "or", "xor", "not",
		"shl", "shr", "rotl", "rotr",
		"popcount", "leading_zeros", "trailing_zeros", "hamming",
	}
}

// BinaryResult is the JSON-marshalable outcome of a binary operation.
type BinaryResult struct {
	Operation string `json:"operation"`
	ValueA    uint64 `json:"value_a"`
	ValueB    uint64 `json:"value_b,omitempty"`
	Result    uint64 `json:"result"`
}

func (b Binary) Run(req Request, _ []byte) (any, error) {
	a, v := req.ValueA, req.ValueB
	var out uint64
	switch req.Operation {
	case "and":
		out = a & v
	case "or":
		out = a | v
	case "xor":
		out = a ^ v
	case "not":
		out = ^a
	case "shl":
		out = a << (v & 63)
	case "shr":
		out = a >> (v & 63)
	case "rotl":
		out = bits.RotateLeft64(a, int(v&63))
	case "rotr":
		out = bits.RotateLeft64(a, -int(v&63))
	case "popcount":
		out = uint64(bits.OnesCount64(a))
	case "leading_zeros":
		out = uint64(bits.LeadingZeros64(a))
	case "trailing_zeros":
		out = uint64(bits.TrailingZeros64(a))
	case "hamming":
		out = uint64(bits.OnesCount64(a ^ v))
	default:
		return nil, fmt.Errorf("binary: unknown operation %q", req.Operation)
	}
	return BinaryResult{
		Operation: req.Operation,
		ValueA:    a,
		ValueB:    v,
		Result:    out,
	}, nil
}
