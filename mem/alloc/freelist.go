package alloc

import "github.com/joshuapare/pagealloc/internal/format"

// freeList is an intrusive LIFO list of free blocks threaded through the
// free-list pair of each header. It never touches adjacency links.
type freeList struct {
	spans *spanSet
	head  uint64
	count int
	bytes int // sum of member sizes, headers included
}

// insert pushes b onto the front of the list. The caller sets the free flag.
func (fl *freeList) insert(b block) {
	b.setFreePrev(format.NilAddr)
	b.setFreeNext(fl.head)
	if fl.head != format.NilAddr {
		fl.spans.at(fl.head).setFreePrev(b.addr())
	}
	fl.head = b.addr()
	fl.count++
	fl.bytes += b.size()
}

// remove unlinks b, which must currently be on the list.
func (fl *freeList) remove(b block) {
	prev, next := b.freePrev(), b.freeNext()
	if prev != format.NilAddr {
		fl.spans.at(prev).setFreeNext(next)
	} else {
		fl.head = next
	}
	if next != format.NilAddr {
		fl.spans.at(next).setFreePrev(prev)
	}
	b.setFreePrev(format.NilAddr)
	b.setFreeNext(format.NilAddr)
	fl.count--
	fl.bytes -= b.size()
}

// findFirstFit returns the first block in list order whose size is at least
// need, already unlinked. Most recently freed blocks are seen first.
func (fl *freeList) findFirstFit(need int) (block, bool) {
	for cur := fl.head; cur != format.NilAddr; {
		b := fl.spans.at(cur)
		if b.size() >= need {
			fl.remove(b)
			return b, true
		}
		cur = b.freeNext()
	}
	return block{}, false
}

// each visits members in list order until fn returns false.
func (fl *freeList) each(fn func(block) bool) {
	for cur := fl.head; cur != format.NilAddr; {
		b := fl.spans.at(cur)
		next := b.freeNext()
		if !fn(b) {
			return
		}
		cur = next
	}
}

func (fl *freeList) reset() {
	fl.head = format.NilAddr
	fl.count = 0
	fl.bytes = 0
}
