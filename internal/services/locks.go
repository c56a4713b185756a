package services

import (
	"sort"

	"github.com/im7mortal/kmutex"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// keyLocker serializes mutations per document id inside this process.
type keyLocker struct {
	km *kmutex.Kmutex
}

func newKeyLocker() *keyLocker {
	return &keyLocker{km: kmutex.New()}
}

// lock acquires every key in sorted order and returns the matching unlock.
// Sorting keeps two-user transitions from deadlocking each other.
func (l *keyLocker) lock(keys ...string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)
	for _, k := range uniq {
		l.km.Lock(k)
	}
	return func() {
		for i := len(uniq) - 1; i >= 0; i-- {
			l.km.Unlock(uniq[i])
		}
	}
}

func groupKey(id primitive.ObjectID) string { return "group:" + id.Hex() }

func userKey(id primitive.ObjectID) string { return "user:" + id.Hex() }
