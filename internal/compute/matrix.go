package compute

import (
	"fmt"
	"math/rand/v2"
)

// maxMatrixCells bounds the work a single matrix task may request.
const maxMatrixCells = 1 << 20

// Matrix implements dense float64 matrix kernels. Inputs are generated
// deterministically from the request seed so results are reproducible.
type Matrix struct{}

func (Matrix) Name() string { return "matrix" }

func (Matrix) Operations() []string {
	return []string{"multiply", "transpose", "add", "identity"}
}

type MatrixResult struct {
	Operation string  `json:"operation"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	Checksum  float64 `json:"checksum"`
}

func (m Matrix) Run(req Request, _ []byte) (any, error) {
	rows, cols := req.Rows, req.Cols
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("matrix: rows and cols must be positive, got %dx%d", rows, cols)
	}
	if rows*cols > maxMatrixCells {
		return nil, fmt.Errorf("matrix: %dx%d exceeds the %d-cell limit", rows, cols, maxMatrixCells)
	}

	rng := rand.New(rand.NewPCG(uint64(req.Seed), uint64(req.Seed)>>1|1))

	var out []float64
	switch req.Operation {
	case "multiply":
		// A (rows x cols) * B (cols x rows) -> rows x rows.
		if rows*rows > maxMatrixCells {
			return nil, fmt.Errorf("matrix: multiply result %dx%d exceeds the cell limit", rows, rows)
		}
		a := randomMatrix(rng, rows, cols)
		b := randomMatrix(rng, cols, rows)
		out = multiply(a, b, rows, cols, rows)
	case "transpose":
		a := randomMatrix(rng, rows, cols)
		out = transpose(a, rows, cols)
	case "add":
		a := randomMatrix(rng, rows, cols)
		b := randomMatrix(rng, rows, cols)
		out = make([]float64, rows*cols)
		for i := range out {
			out[i] = a[i] + b[i]
		}
	case "identity":
		if rows != cols {
			return nil, fmt.Errorf("matrix: identity requires a square shape, got %dx%d", rows, cols)
		}
		out = make([]float64, rows*cols)
		for i := 0; i < rows; i++ {
			out[i*cols+i] = 1
		}
	default:
		return nil, fmt.Errorf("matrix: unknown operation %q", req.Operation)
	}

	var sum float64
	for _, v := range out {
		sum += v
	}
	return MatrixResult{
		Operation: req.Operation,
		Rows:      rows,
		Cols:      cols,
		Checksum:  sum,
	}, nil
}

func randomMatrix(rng *rand.Rand, rows, cols int) []float64 {
	m := make([]float64, rows*cols)
	for i := range m {
		m[i] = rng.Float64()*2 - 1
	}
	return m
}

// multiply computes a (n x k) times b (k x m), row-major.
func multiply(a, b []float64, n, k, m int) []float64 {
	out := make([]float64, n*m)
	for i := 0; i < n; i++ {
		for l := 0; l < k; l++ {
			av := a[i*k+l]
			if av == 0 {
				continue
			}
			for j := 0; j < m; j++ {
				out[i*m+j] += av * b[l*m+j]
			}
		}
	}
	return out
}

func transpose(a []float64, rows, cols int) []float64 {
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = a[i*cols+j]
		}
	}
	return out
}
