// ABOUTME: Tests for InMemory: FIFO order, dedup by ID, snapshot isolation

package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

func TestInMemory_PreservesOrder(t *testing.T) {
	t.Parallel()

	mem := NewInMemory()
	for i := 0; i < 5; i++ {
		mem.Add(msg.MustText("user", msg.RoleUser, fmt.Sprintf("m%d", i)))
	}

	all := mem.All()
	if len(all) != 5 {
		t.Fatalf("Len = %d, want 5", len(all))
	}
	for i, m := range all {
		if want := fmt.Sprintf("m%d", i); m.Text() != want {
			t.Errorf("all[%d] = %q, want %q", i, m.Text(), want)
		}
	}
}

func TestInMemory_SkipsDuplicateIDs(t *testing.T) {
	t.Parallel()

	mem := NewInMemory()
	m := msg.MustText("user", msg.RoleUser, "hello")
	mem.Add(m)
	mem.Add(m)

	if mem.Len() != 1 {
		t.Errorf("Len = %d, want 1 after duplicate add", mem.Len())
	}
}

func TestInMemory_AllReturnsCopy(t *testing.T) {
	t.Parallel()

	mem := NewInMemory()
	mem.Add(msg.MustText("user", msg.RoleUser, "original"))

	snapshot := mem.All()
	snapshot[0] = msg.MustText("user", msg.RoleUser, "tampered")

	if got := mem.All()[0].Text(); got != "original" {
		t.Errorf("stored message changed through snapshot: %q", got)
	}
}

func TestInMemory_ConcurrentAdd(t *testing.T) {
	t.Parallel()

	mem := NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mem.Add(msg.MustText("user", msg.RoleUser, fmt.Sprintf("c%d", i)))
		}(i)
	}
	wg.Wait()

	if mem.Len() != 20 {
		t.Errorf("Len = %d, want 20", mem.Len())
	}
}

func TestInMemory_Clear(t *testing.T) {
	t.Parallel()

	mem := NewInMemory()
	m := msg.MustText("user", msg.RoleUser, "hello")
	mem.Add(m)
	mem.Clear()

	if mem.Len() != 0 {
		t.Fatalf("Len = %d, want 0", mem.Len())
	}
	// A cleared memory accepts previously seen IDs again.
	mem.Add(m)
	if mem.Len() != 1 {
		t.Errorf("Len = %d, want 1 after re-add", mem.Len())
	}
}
