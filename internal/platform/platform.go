package platform

import (
	"fmt"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
)

// InvalidPlatformError 지원하지 않는 플랫폼 문자열
type InvalidPlatformError struct {
	Value string
}

func (e *InvalidPlatformError) Error() string {
	return fmt.Sprintf("invalid platform: %q (expected %q or %q)",
		e.Value, models.PlatformIOS, models.PlatformAndroid)
}

// 워크플로우 단계 식별자
const (
	StepInitialize      = "initialize"
	StepAPIKey          = "api-key"
	StepBundleCert      = "bundle-cert"
	StepBundleKeystore  = "bundle-keystore"
	StepPushConfig      = "push-config"
	StepAppStoreListing = "app-store-listing"
	StepTriggerBuild    = "trigger-build"
	StepMonitorBuild    = "monitor-build"
	StepBuild           = "build"
)

// stepLabels 단계 식별자의 표시용 이름
var stepLabels = map[string]string{
	StepInitialize:      "Getting started",
	StepAPIKey:          "API key",
	StepBundleCert:      "Bundle ID & certificate",
	StepBundleKeystore:  "Bundle ID & keystore",
	StepPushConfig:      "Push notifications",
	StepAppStoreListing: "Store listing",
	StepTriggerBuild:    "Request build",
	StepMonitorBuild:    "Build in progress",
	StepBuild:           "Build",
}

// Strategy 플랫폼별 단계 목록/필수 필드/엔드포인트 조각.
// FromString으로 한 번 선택해서 전달한다 (플랫폼 문자열 비교를 흩뿌리지 않기 위함).
type Strategy struct {
	platform      models.Platform
	steps         []string
	currentStep   map[models.StepStatus]string
	completedUpTo map[models.StepStatus]int
}

var ios = &Strategy{
	platform: models.PlatformIOS,
	steps: []string{
		StepAPIKey, StepBundleCert, StepPushConfig, StepAppStoreListing, StepBuild,
	},
	currentStep: map[models.StepStatus]string{
		models.StepStatusInitialized:          StepAPIKey,
		models.StepStatusStoreConfigSubmitted: StepPushConfig,
		models.StepStatusPushConfigured:       StepAppStoreListing,
		models.StepStatusMetadataSubmitted:    StepTriggerBuild,
		models.StepStatusBuildTriggered:       StepMonitorBuild,
	},
	completedUpTo: map[models.StepStatus]int{
		models.StepStatusInitialized:          0,
		models.StepStatusStoreConfigSubmitted: 2, // api-key + bundle-cert
		models.StepStatusPushConfigured:       3,
		models.StepStatusMetadataSubmitted:    4,
		models.StepStatusBuildTriggered:       5,
	},
}

var android = &Strategy{
	platform: models.PlatformAndroid,
	steps: []string{
		StepBundleKeystore, StepPushConfig, StepAppStoreListing, StepBuild,
	},
	currentStep: map[models.StepStatus]string{
		models.StepStatusInitialized:          StepBundleKeystore,
		models.StepStatusStoreConfigSubmitted: StepPushConfig,
		models.StepStatusPushConfigured:       StepAppStoreListing,
		models.StepStatusMetadataSubmitted:    StepTriggerBuild,
		models.StepStatusBuildTriggered:       StepMonitorBuild,
	},
	completedUpTo: map[models.StepStatus]int{
		models.StepStatusInitialized:          0,
		models.StepStatusStoreConfigSubmitted: 1,
		models.StepStatusPushConfigured:       2,
		models.StepStatusMetadataSubmitted:    3,
		models.StepStatusBuildTriggered:       4,
	},
}

// IOS iOS 전략 반환
func IOS() *Strategy { return ios }

// Android Android 전략 반환
func Android() *Strategy { return android }

// FromString 플랫폼 문자열로 전략 선택
func FromString(value string) (*Strategy, error) {
	switch models.Platform(value) {
	case models.PlatformIOS:
		return ios, nil
	case models.PlatformAndroid:
		return android, nil
	}
	return nil, &InvalidPlatformError{Value: value}
}

// Platform 전략이 담당하는 플랫폼
func (s *Strategy) Platform() models.Platform { return s.platform }

// Steps UI 단계 식별자 목록 (복사본)
func (s *Strategy) Steps() []string {
	out := make([]string, len(s.steps))
	copy(out, s.steps)
	return out
}

// CurrentStep data.status에 대응하는 현재 단계.
// 등록되지 않은 값은 initialize로 처리한다.
func (s *Strategy) CurrentStep(status models.StepStatus) string {
	if step, ok := s.currentStep[status]; ok {
		return step
	}
	return StepInitialize
}

// CompletedSteps data.status까지 완료된 단계 식별자 목록
func (s *Strategy) CompletedSteps(status models.StepStatus) []string {
	n, ok := s.completedUpTo[status]
	if !ok {
		return []string{}
	}
	out := make([]string, n)
	copy(out, s.steps[:n])
	return out
}

// RequiresTeamID 제출 생성 시 teamId가 필수인지 (iOS)
func (s *Strategy) RequiresTeamID() bool {
	return s.platform == models.PlatformIOS
}

// RequiresVersionCode 스토어 설정에 fl-store-versionCode가 필수인지 (Android)
func (s *Strategy) RequiresVersionCode() bool {
	return s.platform == models.PlatformAndroid
}

// PushCredentialField 푸시 설정에서 필수인 자격증명 필드 이름
func (s *Strategy) PushCredentialField() string {
	if s.platform == models.PlatformIOS {
		return "fl-push-apnsAuthKey"
	}
	return "fl-push-fcmServerKey"
}

// PathFragment 원격 API 경로의 플랫폼 조각
func (s *Strategy) PathFragment() string {
	return string(s.platform)
}

// StepLabel 단계 식별자의 표시용 이름
func StepLabel(stepID string) string {
	if label, ok := stepLabels[stepID]; ok {
		return label
	}
	return stepID
}
