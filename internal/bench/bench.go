// Package bench measures the time and memory a query takes.
package bench

import (
	"runtime"
	"time"
)

type Mark struct {
	Name string `json:"name"`
	// microseconds since the benchmark started
	ElapsedTime int64 `json:"elapsed_time"`
	// bytes allocated since the benchmark started
	MemoryUsage int64 `json:"memory_usage"`
}

type Benchmark struct {
	start       time.Time
	start_alloc uint64
	marks       []Mark
}

func totalAlloc() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.TotalAlloc
}

func Start() *Benchmark {
	return &Benchmark{start: time.Now(), start_alloc: totalAlloc()}
}

// Mark records a named checkpoint, e.g. the end of parsing.
func (b *Benchmark) Mark(name string) Mark {
	m := Mark{Name: name, ElapsedTime: b.ElapsedTime(), MemoryUsage: b.MemoryUsage()}
	b.marks = append(b.marks, m)
	return m
}

func (b *Benchmark) Marks() []Mark { return b.marks }

func (b *Benchmark) Elapsed() time.Duration { return time.Since(b.start) }

func (b *Benchmark) ElapsedTime() int64 { return b.Elapsed().Microseconds() }

func (b *Benchmark) MemoryUsage() int64 {
	return int64(totalAlloc() - b.start_alloc)
}
