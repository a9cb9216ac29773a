package usecase

import "fmt"

type Stage string

const (
	StageNotifyStarted   Stage = "notify_started"
	StageFetch           Stage = "fetch"
	StageExtract         Stage = "extract"
	StageArchive         Stage = "archive"
	StageUpload          Stage = "upload"
	StageNotifyProcessed Stage = "notify_processed"
)

// StageError records which pipeline step a conversion failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
