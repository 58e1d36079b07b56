package bench_test

import (
	"testing"
	"time"

	. "github.com/tobsdb/jqldb/internal/bench"
	"gotest.tools/v3/assert"
)

var sink [][]byte

func TestBenchmark(t *testing.T) {
	b := Start()
	time.Sleep(2 * time.Millisecond)
	parse := b.Mark("parse")

	for i := 0; i < 64; i++ {
		sink = append(sink, make([]byte, 1024))
	}
	exec := b.Mark("execute")

	assert.Assert(t, parse.ElapsedTime >= 2000)
	assert.Assert(t, exec.ElapsedTime >= parse.ElapsedTime)
	assert.Assert(t, exec.MemoryUsage >= 64*1024)
	assert.Assert(t, b.MemoryUsage() >= exec.MemoryUsage)
	assert.Equal(t, len(b.Marks()), 2)
	assert.Equal(t, b.Marks()[1].Name, "execute")
}
