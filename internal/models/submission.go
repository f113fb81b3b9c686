package models

import "time"

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

type SubmissionType string

// 현재 appStore 제출만 지원
const SubmissionTypeAppStore SubmissionType = "appStore"

// SubmissionStatus 제출의 외부 라이프사이클 상태
type SubmissionStatus string

const (
	SubmissionStatusStarted   SubmissionStatus = "started"
	SubmissionStatusCompleted SubmissionStatus = "completed"
	SubmissionStatusFailed    SubmissionStatus = "failed"
	SubmissionStatusCancelled SubmissionStatus = "cancelled"
)

// Terminal 더 이상 진행할 수 없는 상태인지 확인
func (s SubmissionStatus) Terminal() bool {
	switch s {
	case SubmissionStatusCompleted, SubmissionStatusFailed, SubmissionStatusCancelled:
		return true
	}
	return false
}

// StepStatus 제출 내부의 단계 진행 마커 (외부 status와 별개)
type StepStatus string

const (
	StepStatusInitialized          StepStatus = "INITIALIZED"
	StepStatusStoreConfigSubmitted StepStatus = "STORE_CONFIG_SUBMITTED"
	StepStatusPushConfigured       StepStatus = "PUSH_NOTIFICATION_CONFIGURED"
	StepStatusMetadataSubmitted    StepStatus = "METADATA_SUBMITTED"
	StepStatusBuildTriggered       StepStatus = "BUILD_TRIGGERED"
)

// stepOrder 단계 순서. data.status는 이 순서대로만 전진한다.
var stepOrder = map[StepStatus]int{
	StepStatusInitialized:          0,
	StepStatusStoreConfigSubmitted: 1,
	StepStatusPushConfigured:       2,
	StepStatusMetadataSubmitted:    3,
	StepStatusBuildTriggered:       4,
}

// Rank 단계의 순서 값 반환. 알 수 없는 값이면 ok=false
func (s StepStatus) Rank() (int, bool) {
	rank, ok := stepOrder[s]
	return rank, ok
}

// Known 순서표에 등록된 단계인지 확인
func (s StepStatus) Known() bool {
	_, ok := stepOrder[s]
	return ok
}

// Precedes s가 next의 바로 이전 단계인지 확인
func (s StepStatus) Precedes(next StepStatus) bool {
	a, okA := s.Rank()
	b, okB := next.Rank()
	return okA && okB && a+1 == b
}

// SplashScreen 스플래시 스크린 에셋 참조
type SplashScreen struct {
	AssetURL  string `json:"assetUrl,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
}

// SubmissionData 단계가 완료될 때마다 누적되는 제출 데이터
type SubmissionData struct {
	Status       StepStatus    `json:"status,omitempty"`
	TeamID       string        `json:"teamId,omitempty"` // iOS 전용
	BundleID     string        `json:"bundleId,omitempty"`
	Version      string        `json:"version,omitempty"`
	VersionCode  string        `json:"fl-store-versionCode,omitempty"` // Android 전용
	APIKeyID     string        `json:"fl-credential-apiKeyId,omitempty"`
	SplashScreen *SplashScreen `json:"splashScreen,omitempty"`
	BuildID      string        `json:"buildId,omitempty"`
}

// Submission 원격 시스템에 저장되는 제출 레코드
type Submission struct {
	ID        string           `json:"id,omitempty"`
	AppID     string           `json:"appId"`
	Platform  Platform         `json:"platform"`
	Type      SubmissionType   `json:"type"`
	Status    SubmissionStatus `json:"status"`
	Data      SubmissionData   `json:"data"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Active 진행 중인 제출인지 확인
func (s *Submission) Active() bool {
	return s != nil && s.Status == SubmissionStatusStarted
}

// CreateSubmissionRequest 새 제출 생성 요청
type CreateSubmissionRequest struct {
	TeamID string `json:"teamId,omitempty"` // iOS 필수
}

// StoreConfigPayload 스토어 설정 제출 페이로드
type StoreConfigPayload struct {
	TeamID      string `json:"teamId,omitempty"`
	BundleID    string `json:"bundleId"`
	Version     string `json:"version,omitempty"`
	VersionCode string `json:"fl-store-versionCode,omitempty"`
	APIKeyID    string `json:"fl-credential-apiKeyId,omitempty"`
}

// PushConfigPayload 푸시 알림 설정 페이로드
type PushConfigPayload struct {
	APNSAuthKey  string `json:"fl-push-apnsAuthKey,omitempty"` // iOS 필수
	APNSKeyID    string `json:"fl-push-apnsKeyId,omitempty"`
	FCMServerKey string `json:"fl-push-fcmServerKey,omitempty"` // Android 필수
}

// MetadataPayload 스토어 메타데이터 제출 페이로드
type MetadataPayload struct {
	AppName      string        `json:"appName,omitempty"`
	Description  string        `json:"description,omitempty"`
	Keywords     string        `json:"keywords,omitempty"`
	SplashScreen *SplashScreen `json:"splashScreen,omitempty"`
	// SplashScreenUploaded 이번 단계에서 새 스플래시 에셋이 업로드되었는지 여부
	SplashScreenUploaded bool `json:"splashScreenUploaded,omitempty"`
}
