package util

import (
	"math/rand"
	"sort"
	"testing"
)

// owners simulates entries that remember their slot index
type owners map[uint32]int

func (o owners) set(ref uint32, idx int) { o[ref] = idx }

func checkBackRefs(t *testing.T, h *TTLHeap, o owners) {
	t.Helper()
	for i := 0; i < h.Len(); i++ {
		item := h.items.slots[i]
		if o[item.Ref] != i {
			t.Fatalf("slot %d holds ref %d, but owner points to %d", i, item.Ref, o[item.Ref])
		}
		if i > 0 && h.items.slots[(i-1)/2].ExpireAt > item.ExpireAt {
			t.Fatalf("heap order violated at slot %d", i)
		}
	}
}

func TestTTLHeap(t *testing.T) {
	t.Run("EmptyPeek", func(t *testing.T) {
		h := NewTTLHeap(owners{}.set)
		if _, ok := h.Peek(); ok {
			t.Error("empty heap should not return an item")
		}
	})

	t.Run("PopInOrder", func(t *testing.T) {
		o := owners{}
		h := NewTTLHeap(o.set)
		for ref, exp := range []uint64{500, 100, 300, 200, 400} {
			h.Insert(HeapItem{ExpireAt: exp, Ref: uint32(ref + 1)})
			checkBackRefs(t, h, o)
		}

		var got []uint64
		for h.Len() > 0 {
			item := h.PopMin()
			if o[item.Ref] != -1 {
				t.Errorf("popped ref %d still has index %d", item.Ref, o[item.Ref])
			}
			got = append(got, item.ExpireAt)
			checkBackRefs(t, h, o)
		}
		if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i] < got[j] }) {
			t.Errorf("items not popped in order: %v", got)
		}
	})

	t.Run("UpdateAndRemove", func(t *testing.T) {
		o := owners{}
		h := NewTTLHeap(o.set)
		for ref := uint32(1); ref <= 10; ref++ {
			h.Insert(HeapItem{ExpireAt: uint64(ref) * 10, Ref: ref})
		}

		// move ref 10 to the front
		h.Update(o[10], 1)
		checkBackRefs(t, h, o)
		if top, _ := h.Peek(); top.Ref != 10 {
			t.Errorf("expected ref 10 on top, got %d", top.Ref)
		}

		// move ref 10 to the back again
		h.Update(o[10], 1000)
		checkBackRefs(t, h, o)

		removed := h.Remove(o[5])
		if removed.Ref != 5 || removed.ExpireAt != 50 {
			t.Errorf("unexpected removed item %+v", removed)
		}
		if o[5] != -1 {
			t.Errorf("removed ref should have index -1, got %d", o[5])
		}
		checkBackRefs(t, h, o)
		if h.Len() != 9 {
			t.Errorf("expected 9 items, got %d", h.Len())
		}
	})

	t.Run("Randomized", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		o := owners{}
		h := NewTTLHeap(o.set)
		expires := map[uint32]uint64{}
		var live []uint32
		next := uint32(1)

		for i := 0; i < 5000; i++ {
			switch op := rng.Intn(4); {
			case op < 2 || len(live) == 0:
				exp := uint64(rng.Intn(1000))
				h.Insert(HeapItem{ExpireAt: exp, Ref: next})
				expires[next] = exp
				live = append(live, next)
				next++
			case op == 2:
				ref := live[rng.Intn(len(live))]
				exp := uint64(rng.Intn(1000))
				h.Update(o[ref], exp)
				expires[ref] = exp
			default:
				k := rng.Intn(len(live))
				ref := live[k]
				h.Remove(o[ref])
				delete(expires, ref)
				delete(o, ref)
				live[k] = live[len(live)-1]
				live = live[:len(live)-1]
			}

			if h.Len() != len(live) {
				t.Fatalf("step %d: heap has %d items, expected %d", i, h.Len(), len(live))
			}
			checkBackRefs(t, h, o)
			if len(live) == 0 {
				continue
			}
			minExp := expires[live[0]]
			for _, ref := range live[1:] {
				minExp = min(minExp, expires[ref])
			}
			if top, ok := h.Peek(); !ok || top.ExpireAt != minExp || expires[top.Ref] != minExp {
				t.Fatalf("step %d: peek = %+v, expected expiration %d", i, top, minExp)
			}
		}
	})
}
