package service

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// stripedLock serializes turns of one conversation without a map entry per conversation.
type stripedLock struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLock) lock(conversationID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(conversationID))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()

	return mu.Unlock
}
