// Package services defines the shared error taxonomy for the synthesis
// pipeline.
//
// Failures detected before a job starts are returned synchronously to the
// submitter; failures during processing are recorded on the job row and only
// surface through status reads. Both paths classify errors the same way: tag
// the failure with one of the sentinel markers via Wrap, and let Code map the
// chain to the taxonomy code stored in the job record.
package services
