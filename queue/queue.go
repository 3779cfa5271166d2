package queue

// Queue is an unbounded ordered sequence of jobs. Fresh jobs are added at the
// end and jobs that need to cut the line (like retries) at the front, jobs are
// always taken from the front.
//
// Queue is not safe for concurrent use, the owner must serialize the access.
type Queue[T any] struct {
	jobs []T
}

// New returns a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// PushBack queues the job at the end of the queue.
func (q *Queue[T]) PushBack(job T) {
	q.jobs = enqueueAtEndPolicy(job, q.jobs)
}

// PushFront queues the job at the head of the queue, it will be the next one
// to be dequeued.
func (q *Queue[T]) PushFront(job T) {
	q.jobs = enqueueAtFrontPolicy(job, q.jobs)
}

// PopFront dequeues the job at the head of the queue. If the queue is empty
// it returns false.
func (q *Queue[T]) PopFront() (T, bool) {
	job, ok, jobs := fifoDequeuePolicy(q.jobs)
	q.jobs = jobs
	return job, ok
}

// Len returns the number of queued jobs.
func (q *Queue[T]) Len() int {
	return len(q.jobs)
}

// Queue Policies.
// enqueueAtEndPolicy enqueues at the end of the queue.
func enqueueAtEndPolicy[T any](job T, jobqueue []T) []T {
	return append(jobqueue, job)
}

// enqueueAtFrontPolicy enqueues at the start of the queue.
func enqueueAtFrontPolicy[T any](job T, jobqueue []T) []T {
	jobqueue = append(jobqueue, job)
	copy(jobqueue[1:], jobqueue[:len(jobqueue)-1])
	jobqueue[0] = job
	return jobqueue
}

// fifoDequeuePolicy implements the policy for a FIFO priority, it will
// dequeue the first job in the queue.
func fifoDequeuePolicy[T any](queue []T) (job T, ok bool, afterQueue []T) {
	if len(queue) == 0 {
		return job, false, queue[:0]
	}

	job = queue[0]
	// Release the reference so the dequeued job can be collected.
	var zero T
	queue[0] = zero

	// Reuse the backing array from the start when the queue gets drained.
	if len(queue) == 1 {
		return job, true, queue[:0]
	}
	return job, true, queue[1:]
}
