package service

import (
	"errors"
	"fmt"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
)

// Common service errors
var (
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrSubmissionNotActive    = errors.New("submission is not in progress")
	ErrActiveSubmissionExists = errors.New("an active submission already exists for this platform")
)

// ValidationError 필드 누락/형식 오류. 네트워크 호출 전에 검출되며 자동 재시도 대상이 아니다
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// missingParam 필수 파라미터 누락
func missingParam(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required parameter missing"}
}

// SequencingError 요청한 전이가 현재 단계와 맞지 않음.
// 호출자(UI)의 상태가 어긋났다는 뜻이므로 최신 제출을 다시 조회해 렌더링해야 한다
type SequencingError struct {
	Operation string
	Expected  models.StepStatus
	Actual    models.StepStatus
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("%s out of order: requires submission at step %q, currently at %q",
		e.Operation, e.Expected, e.Actual)
}
