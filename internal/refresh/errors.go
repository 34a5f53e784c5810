package refresh

import (
	"errors"
	"fmt"
)

// ErrRefreshInProgress is returned by Trigger while another run holds the store
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Stage names the step at which one instrument failed
type Stage string

const (
	StageUnavailable Stage = "unavailable" // upstream returned non-success or no data
	StageFetch       Stage = "fetch"       // transport or parse failure
	StageCompute     Stage = "compute"
	StageReconcile   Stage = "reconcile"
	StageCanceled    Stage = "canceled"
)

// InstrumentError is one skipped instrument
type InstrumentError struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Stage Stage  `json:"stage"`
	Err   error  `json:"-"`

	Message string `json:"message"` // Err text, kept for run history
}

func (e *InstrumentError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Stage, e.Code, e.Name, e.Err)
}

func (e *InstrumentError) Unwrap() error {
	return e.Err
}
