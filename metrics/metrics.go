package metrics

import "time"

// Recorder knows how to measure different kind of metrics of the scheduler.
type Recorder interface {
	// WithID will set the ID name to the recorder and every metric
	// measured with the obtained recorder will be identified with
	// the name.
	WithID(id string) Recorder
	// IncSubmitted increments the number of submitted tasks.
	IncSubmitted()
	// ObserveAttempt will measure a single execution of a task.
	ObserveAttempt(start time.Time, success bool)
	// IncRetry will increment the number of retries by the kind of failure
	// that triggered them.
	IncRetry(kind string)
	// ObserveRetryDelay will measure the wait before a retry.
	ObserveRetryDelay(delay time.Duration)
	// IncSettled increments the number of settled tasks.
	IncSettled(success bool)
	// SetQueueLength sets the number of tasks waiting to be executed.
	SetQueueLength(length int)
	// SetActive sets the number of tasks executing.
	SetActive(active int)
}

// Dummy is a dummy recorder that doesn't record anything.
var Dummy Recorder = dummy{}

type dummy struct{}

func (d dummy) WithID(id string) Recorder { return d }
func (dummy) IncSubmitted() {}
func (dummy) ObserveAttempt(start time.Time, success bool) {}
func (dummy) IncRetry(kind string) {}
func (dummy) ObserveRetryDelay(delay time.Duration) {}
func (dummy) IncSettled(success bool) {}
func (dummy) SetQueueLength(length int) {}
func (dummy) SetActive(active int) {}
