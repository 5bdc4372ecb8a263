package events

import "time"

// PipelineStart is emitted when a request enters the processing pipeline.
type PipelineStart struct {
	Resource string
}

// PipelineFinish is emitted after the pipeline produced its response.
type PipelineFinish struct {
	Resource string
	Records  int
	Err      error
	Duration time.Duration
}

// PlanStart is emitted before selection validation.
type PlanStart struct {
	Resource string
}

// PlanFinish is emitted after the selector produced (or refused) a plan.
type PlanFinish struct {
	Resource    string
	DirectCount int
	LazyCount   int
	Err         error
	Duration    time.Duration
}

// ExtractStart is emitted before result extraction.
type ExtractStart struct {
	Resource string
	Records  int
}

// ExtractFinish is emitted after result extraction.
type ExtractFinish struct {
	Resource string
	Records  int
	Duration time.Duration
}
