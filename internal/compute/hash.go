package compute

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
)

// Hash implements digest operations over the request payload.
type Hash struct{}

func (Hash) Name() string { return "hash" }

func (Hash) Operations() []string {
	return []string{"sha256", "fnv32a", "fnv64a", "fnv128a"}
}

type HashResult struct {
	Operation string `json:"operation"`
	Digest    string `json:"digest"`
	Bytes     int    `json:"bytes"`
}

func (h Hash) Run(req Request, scratch []byte) (any, error) {
	data := []byte(req.Payload)
	// Stage the payload in the leased scratch block when it fits, keeping
	// the hot path off the general allocator.
	if len(scratch) >= len(data) {
		data = scratch[:copy(scratch, data)]
	}

	var digest []byte
	switch req.Operation {
	case "sha256":
		sum := sha256.Sum256(data)
		digest = sum[:]
	case "fnv32a":
		f := fnv.New32a()
		f.Write(data)
		digest = f.Sum(nil)
	case "fnv64a":
		f := fnv.New64a()
		f.Write(data)
		digest = f.Sum(nil)
	case "fnv128a":
		f := fnv.New128a()
		f.Write(data)
		digest = f.Sum(nil)
	default:
		return nil, fmt.Errorf("hash: unknown operation %q", req.Operation)
	}

	return HashResult{
		Operation: req.Operation,
		Digest:    hex.EncodeToString(digest),
		Bytes:     len(data),
	}, nil
}
