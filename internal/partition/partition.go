// Package partition splits a days-back scrape window across job-array workers.
//
// A Job covers the offsets {0 .. TotalDays-1}, where offset 0 is the anchor
// date ("today") and larger offsets lie further in the past. Each worker in
// the array receives one contiguous block of offsets; the blocks are disjoint
// and tile the whole window, so parallel workers never scrape the same day
// twice and never collide on output filenames.
package partition

import (
	"fmt"
	"time"
)

// Job describes a scrape window to be divided among workers.
type Job struct {
	// TotalDays is the number of calendar days to cover, counting back
	// from the anchor date.
	TotalDays int
	// WorkerCount is the size of the job array.
	WorkerCount int
}

// DefaultWorkerCount matches the usual job-array size.
const DefaultWorkerCount = 5

// NewJob validates the window parameters and returns a Job.
// Both values must be positive; anything else is a configuration error.
func NewJob(totalDays, workerCount int) (Job, error) {
	if totalDays < 1 {
		return Job{}, fmt.Errorf("total days must be >= 1, got %d", totalDays)
	}
	if workerCount < 1 {
		return Job{}, fmt.Errorf("worker count must be >= 1, got %d", workerCount)
	}
	return Job{TotalDays: totalDays, WorkerCount: workerCount}, nil
}

// ChunkSize returns the number of days handed to each worker before
// clamping, ceil(TotalDays / WorkerCount).
func (j Job) ChunkSize() int {
	return (j.TotalDays + j.WorkerCount - 1) / j.WorkerCount
}

// Assignment is one worker's contiguous block of day offsets.
// Offsets are inclusive on both ends and measured in days before the anchor.
type Assignment struct {
	WorkerIndex int
	OffsetStart int
	OffsetStop  int
}

// Assignment computes the block for workerIndex. The second return value is
// false when the worker's window starts beyond the requested total: the
// worker is idle and has no work, which is an expected outcome, not an
// error. An index outside [0, WorkerCount) is a configuration error.
func (j Job) Assignment(workerIndex int) (Assignment, bool, error) {
	if workerIndex < 0 || workerIndex >= j.WorkerCount {
		return Assignment{}, false, fmt.Errorf(
			"worker index %d out of range [0, %d)", workerIndex, j.WorkerCount)
	}

	chunk := j.ChunkSize()
	start := workerIndex * chunk
	if start >= j.TotalDays {
		return Assignment{}, false, nil
	}

	stop := start + chunk - 1
	if stop > j.TotalDays-1 {
		stop = j.TotalDays - 1
	}
	return Assignment{
		WorkerIndex: workerIndex,
		OffsetStart: start,
		OffsetStop:  stop,
	}, true, nil
}

// Plan returns the non-idle assignments for all workers, in worker order.
// Their offset ranges exactly tile {0 .. TotalDays-1}.
func (j Job) Plan() []Assignment {
	out := make([]Assignment, 0, j.WorkerCount)
	for i := 0; i < j.WorkerCount; i++ {
		a, ok, err := j.Assignment(i)
		if err != nil || !ok {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Days returns the number of calendar days covered by the assignment.
func (a Assignment) Days() int {
	return a.OffsetStop - a.OffsetStart + 1
}

// Dates maps the offset block onto calendar dates relative to anchor.
// Start is the most recent day of the block and stop the oldest, so stop is
// chronologically before or equal to start; the scrape covers every day in
// [stop, start] inclusive.
func (a Assignment) Dates(anchor time.Time) (start, stop time.Time) {
	day := anchor.Truncate(24 * time.Hour)
	return day.AddDate(0, 0, -a.OffsetStart), day.AddDate(0, 0, -a.OffsetStop)
}

// Tag derives the worker's CSV name tag from a base name. Each worker index
// yields a distinct tag, so parallel workers write distinct files.
func (a Assignment) Tag(base string) string {
	return fmt.Sprintf("%s_w%d", base, a.WorkerIndex)
}
