// nexusbench drives the engine in-process with a burst of compute tasks and
// prints the resulting metrics snapshot as JSON.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/nexuslabs/nexus/internal/compute"
	"github.com/nexuslabs/nexus/internal/engine"
)

func main() {
	var (
		workers   = flag.Int("workers", 4, "worker goroutines")
		queueCap  = flag.Int("queue", 1<<12, "queue capacity (power of two)")
		tasks     = flag.Int("tasks", 100000, "number of tasks to submit")
		kindName  = flag.String("kind", "binary", "compute kind")
		operation = flag.String("op", "xor", "operation within the kind")
		payload   = flag.String("payload", "nexusbench", "payload for hash operations")
		verbose   = flag.Bool("v", false, "log engine lifecycle to stderr")
	)
	flag.Parse()

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, nil))

	kind, err := compute.DefaultRegistry().Resolve(*kindName)
	if err != nil {
		log.Fatalf("resolve kind: %v", err)
	}

	eng, err := engine.New(engine.Config{
		Workers:        *workers,
		QueueCapacity:  *queueCap,
		MetricsEnabled: true,
	}, logger)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	if err := eng.Start(); err != nil {
		log.Fatalf("start engine: %v", err)
	}

	req := compute.Request{
		Operation: *operation,
		ValueA:    0xDEADBEEF,
		ValueB:    0xCAFEBABE,
		Payload:   *payload,
		Rows:      64,
		Cols:      64,
		Qubits:    8,
		Seed:      1,
	}
	task := func(scratch []byte) error {
		_, err := kind.Run(req, scratch)
		return err
	}

	start := time.Now()
	for i := 0; i < *tasks; i++ {
		for {
			err := eng.Submit(task)
			if err == nil {
				break
			}
			if err == engine.ErrQueueFull {
				time.Sleep(10 * time.Microsecond)
				continue
			}
			log.Fatalf("submit: %v", err)
		}
	}

	for eng.Stats().Completed < uint64(*tasks) {
		time.Sleep(time.Millisecond)
	}
	elapsed := time.Since(start)

	if err := eng.Stop(); err != nil {
		log.Fatalf("stop engine: %v", err)
	}

	out := struct {
		Kind        string          `json:"kind"`
		Operation   string          `json:"operation"`
		Tasks       int             `json:"tasks"`
		Workers     int             `json:"workers"`
		WallSeconds float64         `json:"wall_seconds"`
		Metrics     engine.Snapshot `json:"metrics"`
		Stats       engine.Stats    `json:"stats"`
	}{
		Kind:        *kindName,
		Operation:   *operation,
		Tasks:       *tasks,
		Workers:     *workers,
		WallSeconds: elapsed.Seconds(),
		Metrics:     eng.Metrics(),
		Stats:       eng.Stats(),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}
