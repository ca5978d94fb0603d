// Package jobs owns the video generation lifecycle.
//
// A submitted request becomes a row in SQLite and an id on a bounded FIFO
// channel. A fixed pool of workers drains the channel and runs each job
// through the pipeline under a per-job timeout. Status transitions are
// guarded UPDATE statements, so they only ever move forward; progress is
// floored integer percent and never decreases. Terminal jobs and their
// artifacts are swept after a retention window.
package jobs
