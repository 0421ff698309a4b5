package scheduler

import (
	"fmt"
	"time"

	"github.com/ykvlv/oazis/internal/domain"
)

// job is the single recurring reminder of one user.
type job struct {
	userID int64
	next   time.Time
	window domain.Window
	index  int
}

func (j *job) id() string {
	return fmt.Sprintf("hydration-reminder:%d", j.userID)
}

// queue is a min-heap of jobs ordered by next fire time, then user id.
type queue []*job

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, k int) bool {
	if q[i].next.Equal(q[k].next) {
		return q[i].userID < q[k].userID
	}
	return q[i].next.Before(q[k].next)
}

func (q queue) Swap(i, k int) {
	q[i], q[k] = q[k], q[i]
	q[i].index = i
	q[k].index = k
}

func (q *queue) Push(x any) {
	j := x.(*job)
	j.index = len(*q)
	*q = append(*q, j)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*q = old[:n-1]
	return j
}
