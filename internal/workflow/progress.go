package workflow

import (
	"fmt"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
	"github.com/Fliplet/fliplet-widget-publishing/internal/platform"
)

// Progress UI 표시용 진행 상황
type Progress struct {
	StatusClass    string   `json:"statusClass"`
	StatusText     string   `json:"statusText"`
	CompletedSteps []string `json:"completedSteps"`
}

// 표시 상태 클래스
const (
	StatusClassReady      = "ready"
	StatusClassInProgress = "in-progress"
	StatusClassPublished  = "published"
	StatusClassFailed     = "failed"
)

// ProjectProgress 제출 레코드를 표시용 진행 상황으로 변환한다.
// 레코드가 없거나 필드가 비어 있어도 패닉 없이 "시작 전" 표시로 강등된다.
func ProjectProgress(sub *models.Submission, strat *platform.Strategy) Progress {
	if sub == nil {
		return Progress{
			StatusClass:    StatusClassReady,
			StatusText:     "Ready to start",
			CompletedSteps: []string{},
		}
	}

	completed := strat.CompletedSteps(sub.Data.Status)

	switch sub.Status {
	case models.SubmissionStatusCompleted:
		return Progress{
			StatusClass:    StatusClassPublished,
			StatusText:     "Published",
			CompletedSteps: completed,
		}
	case models.SubmissionStatusFailed:
		return Progress{
			StatusClass:    StatusClassFailed,
			StatusText:     "Failed",
			CompletedSteps: completed,
		}
	case models.SubmissionStatusStarted:
		state := ResolveState(sub, strat)
		return Progress{
			StatusClass:    StatusClassInProgress,
			StatusText:     fmt.Sprintf("In progress (%s)", platform.StepLabel(state.CurrentStep)),
			CompletedSteps: completed,
		}
	}

	// cancelled 및 알 수 없는 상태는 새로 시작 가능으로 표시
	return Progress{
		StatusClass:    StatusClassReady,
		StatusText:     "Ready to start",
		CompletedSteps: completed,
	}
}
