package workflow

import (
	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
	"github.com/Fliplet/fliplet-widget-publishing/internal/platform"
)

// State 제출 레코드에서 도출한 현재 워크플로우 위치
type State struct {
	CurrentStep        string `json:"currentStep"`
	CanProceed         bool   `json:"canProceed"`
	NeedsNewSubmission bool   `json:"needsNewSubmission"`
}

// ResolveState 제출 레코드(없을 수 있음)와 플랫폼 전략으로 현재 단계를 계산한다.
// 순수 함수: I/O 없음. 오케스트레이터의 액션 게이트와 진행률 프로젝터가
// 모두 이 함수 하나를 기준으로 삼는다.
func ResolveState(sub *models.Submission, strat *platform.Strategy) State {
	// 제출이 없거나 종료 상태면 새 제출부터 시작
	if sub == nil || sub.Status.Terminal() {
		return State{
			CurrentStep:        platform.StepInitialize,
			CanProceed:         true,
			NeedsNewSubmission: true,
		}
	}

	// started도 종료 상태도 아닌 값은 초기화 단계로 되돌릴 수 있는 것으로 취급
	// (실데이터에서 관측된 적 없는 방어적 기본값)
	if sub.Status != models.SubmissionStatusStarted {
		return State{
			CurrentStep:        platform.StepInitialize,
			CanProceed:         true,
			NeedsNewSubmission: false,
		}
	}

	step := strat.CurrentStep(sub.Data.Status)

	// 빌드가 돌고 있는 동안은 전진 불가, 모니터링만 가능
	canProceed := sub.Data.Status != models.StepStatusBuildTriggered

	return State{
		CurrentStep:        step,
		CanProceed:         canProceed,
		NeedsNewSubmission: false,
	}
}
