package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gothrottle/throttle/queue"
)

type op struct {
	front bool
	v     int
}

func TestQueueOrder(t *testing.T) {
	tests := []struct {
		name     string
		ops      []op
		expOrder []int
	}{
		{
			name:     "An empty queue should not dequeue anything.",
			expOrder: []int{},
		},
		{
			name:     "Jobs pushed at the back should be dequeued in a first-in-first-out order.",
			ops:      []op{{v: 1}, {v: 2}, {v: 3}},
			expOrder: []int{1, 2, 3},
		},
		{
			name:     "Jobs pushed at the front should be dequeued before the ones at the back.",
			ops:      []op{{v: 1}, {v: 2}, {front: true, v: 3}},
			expOrder: []int{3, 1, 2},
		},
		{
			name:     "The latest job pushed at the front should be the first dequeued.",
			ops:      []op{{v: 1}, {front: true, v: 2}, {front: true, v: 3}, {v: 4}},
			expOrder: []int{3, 2, 1, 4},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)

			q := queue.New[int]()
			for _, o := range test.ops {
				if o.front {
					q.PushFront(o.v)
				} else {
					q.PushBack(o.v)
				}
			}
			assert.Equal(len(test.ops), q.Len())

			got := []int{}
			for {
				v, ok := q.PopFront()
				if !ok {
					break
				}
				got = append(got, v)
			}

			assert.Equal(test.expOrder, got)
			assert.Equal(0, q.Len())
		})
	}
}

func TestQueueReuseAfterDrain(t *testing.T) {
	assert := assert.New(t)

	q := queue.New[string]()
	q.PushBack("a")
	v, ok := q.PopFront()
	assert.True(ok)
	assert.Equal("a", v)

	_, ok = q.PopFront()
	assert.False(ok)

	q.PushBack("b")
	q.PushFront("c")
	v, _ = q.PopFront()
	assert.Equal("c", v)
	v, _ = q.PopFront()
	assert.Equal("b", v)
}
