// Package util
//
// This file provides the expiration min-heap used by the storage engines.
//
// Every slot stores the expiration time and a handle of the entry that owns it.
// The owning entry in turn stores its slot index, and the heap keeps that
// back-reference correct through a callback invoked for every slot move. This
// makes removal and re-keying of an arbitrary entry O(log n) without a lookup map.
//
// Example usage:
//
//	h := NewTTLHeap(func(ref uint32, idx int) { entries[ref].heapIdx = idx })
//	h.Insert(HeapItem{ExpireAt: now + 500, Ref: ref})
//	for {
//	    top, ok := h.Peek()
//	    if !ok || top.ExpireAt > now {
//	        break
//	    }
//	    h.PopMin()
//	}
//
// The heap is not safe for concurrent use.
package util

import "container/heap"

// HeapItem is one slot of the heap
type HeapItem struct {
	ExpireAt uint64 // Absolute expiration time in milliseconds
	Ref      uint32 // Handle of the owning entry
}

// IndexFunc is called with the new slot index of ref whenever the slot moves.
// idx is -1 once the item left the heap.
type IndexFunc func(ref uint32, idx int)

// TTLHeap is a min-heap of HeapItems ordered by ExpireAt
type TTLHeap struct {
	items heapItems
}

// heapItems implements heap.Interface and reports every relocation.
type heapItems struct {
	slots    []HeapItem
	setIndex IndexFunc
}

func (h *heapItems) Len() int { return len(h.slots) }

func (h *heapItems) Less(i, j int) bool {
	return h.slots[i].ExpireAt < h.slots[j].ExpireAt
}

func (h *heapItems) Swap(i, j int) {
	h.slots[i], h.slots[j] = h.slots[j], h.slots[i]
	h.setIndex(h.slots[i].Ref, i)
	h.setIndex(h.slots[j].Ref, j)
}

func (h *heapItems) Push(x any) {
	item := x.(HeapItem)
	h.slots = append(h.slots, item)
	h.setIndex(item.Ref, len(h.slots)-1)
}

func (h *heapItems) Pop() any {
	n := len(h.slots)
	item := h.slots[n-1]
	h.slots = h.slots[:n-1]
	h.setIndex(item.Ref, -1)
	return item
}

// NewTTLHeap creates an empty heap. setIndex must not be nil.
func NewTTLHeap(setIndex IndexFunc) *TTLHeap {
	return &TTLHeap{items: heapItems{setIndex: setIndex}}
}

// Len returns the number of slots.
func (h *TTLHeap) Len() int { return len(h.items.slots) }

// Insert adds an item. The owner is informed of its final slot.
func (h *TTLHeap) Insert(item HeapItem) {
	heap.Push(&h.items, item)
}

// Update changes the expiration time of the slot at idx and restores heap order.
func (h *TTLHeap) Update(idx int, expireAt uint64) {
	h.items.slots[idx].ExpireAt = expireAt
	heap.Fix(&h.items, idx)
}

// Remove deletes the slot at idx and returns it.
func (h *TTLHeap) Remove(idx int) HeapItem {
	return heap.Remove(&h.items, idx).(HeapItem)
}

// Peek returns the earliest item without removing it.
func (h *TTLHeap) Peek() (HeapItem, bool) {
	if len(h.items.slots) == 0 {
		return HeapItem{}, false
	}
	return h.items.slots[0], true
}

// PopMin removes and returns the earliest item. The heap must not be empty.
func (h *TTLHeap) PopMin() HeapItem {
	return heap.Pop(&h.items).(HeapItem)
}

// Reset drops all slots without calling the index callback.
func (h *TTLHeap) Reset() { h.items.slots = h.items.slots[:0] }
