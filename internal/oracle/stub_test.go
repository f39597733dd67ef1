package oracle

import (
	"context"
	"sync"
	"testing"
)

// The checker scores chunk×source pairs from multiple workers against a
// single stub, so the counters must tolerate concurrent increments.
func TestStub_CountersUnderConcurrentCalls(t *testing.T) {
	stub := &Stub{Score: 0.5}
	ctx := context.Background()

	const goroutines = 8
	const callsPer = 50
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < callsPer; i++ {
				if _, err := stub.ScoreSimilarity(ctx, "甲", "乙"); err != nil {
					t.Errorf("ScoreSimilarity: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if n := stub.ScoreCalls.Load(); n != goroutines*callsPer {
		t.Errorf("score calls = %d, want %d", n, goroutines*callsPer)
	}
}
