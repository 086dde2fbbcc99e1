package llm

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageRegistryRecordAndSnapshot(t *testing.T) {
	r := NewUsageRegistry()

	r.Record(Call{StepName: "a", Model: "m0"})
	r.Record(Call{StepName: "b", Model: "m1"})

	calls, total := r.Snapshot()
	assert.Equal(t, int64(2), total)
	require.Len(t, calls, 2)
	assert.Equal(t, "a", calls[0].StepName)
	assert.Equal(t, "b", calls[1].StepName)

	assert.ElementsMatch(t, []string{"m0", "m1"}, r.ModelsUsed())
}

func TestUsageRegistryRingEviction(t *testing.T) {
	r := NewUsageRegistry()
	for i := 0; i < defaultRingCapacity+10; i++ {
		r.Record(Call{StepName: fmt.Sprintf("s%d", i)})
	}

	calls, total := r.Snapshot()
	assert.Equal(t, int64(defaultRingCapacity+10), total, "total counter survives eviction")
	require.Len(t, calls, defaultRingCapacity)
	assert.Equal(t, "s10", calls[0].StepName, "oldest surviving entry")
	assert.Equal(t, fmt.Sprintf("s%d", defaultRingCapacity+9), calls[len(calls)-1].StepName)
}

func TestUsageRegistryCallsForStep(t *testing.T) {
	r := NewUsageRegistry()
	r.Record(Call{StepName: "transform", Model: "m0"})
	r.Record(Call{StepName: "summarize", Model: "m0"})
	r.Record(Call{StepName: "transform", Model: "m1"})

	got := r.CallsForStep("transform")
	require.Len(t, got, 2)
	assert.Equal(t, "m0", got[0].Model)
	assert.Equal(t, "m1", got[1].Model)
}

func TestUsageRegistryReset(t *testing.T) {
	r := NewUsageRegistry()
	r.Record(Call{StepName: "a", Model: "m0"})
	r.Reset()

	calls, total := r.Snapshot()
	assert.Empty(t, calls)
	assert.Zero(t, total)
	assert.Empty(t, r.ModelsUsed())
}

func TestUsageRegistryConcurrentRecord(t *testing.T) {
	r := NewUsageRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				r.Record(Call{StepName: "concurrent", Model: fmt.Sprintf("m%d", n%3)})
			}
		}(i)
	}
	wg.Wait()

	_, total := r.Snapshot()
	assert.Equal(t, int64(1000), total)
}
