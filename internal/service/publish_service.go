package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
	"github.com/Fliplet/fliplet-widget-publishing/internal/platform"
	"github.com/Fliplet/fliplet-widget-publishing/internal/session"
	"github.com/Fliplet/fliplet-widget-publishing/internal/workflow"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/apiclient"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/logger"
)

// SubmissionAPI 원격 제출 추적 API (repository가 구현)
type SubmissionAPI interface {
	FetchApp(ctx context.Context, appID string) (*models.App, error)
	Latest(ctx context.Context, appID string, p models.Platform) (*models.Submission, error)
	GetByID(ctx context.Context, appID, submissionID string) (*models.Submission, error)
	Create(ctx context.Context, appID string, p models.Platform, data models.SubmissionData) (*models.Submission, error)
	PutStoreConfig(ctx context.Context, appID, submissionID string, payload models.StoreConfigPayload) error
	PutPushConfig(ctx context.Context, appID, submissionID string, payload models.PushConfigPayload) error
	PutMetadata(ctx context.Context, appID, submissionID string, payload models.MetadataPayload) error
	PostBuild(ctx context.Context, appID, submissionID string) (string, error)
	PostCancel(ctx context.Context, appID, submissionID string) error
	List(ctx context.Context, appID string, p models.Platform, status string) ([]*models.Submission, error)
}

// PublishService 워크플로우 전이를 한 번에 한 단계씩 실행하는 오케스트레이터.
// 원격 호출이 성공했을 때만 로컬 캐시(data.status)를 전진시키므로,
// 실패한 뮤테이션은 상태 변화 없이 그대로 재시도할 수 있다.
//
// 같은 제출 id에 대한 뮤테이션 직렬화는 제공하지 않는다. 동시 뮤테이션
// 차단은 호출 계층(HTTP 핸들러의 락)의 책임이다.
type PublishService struct {
	repo     SubmissionAPI
	sessions session.Store
	monitor  *BuildMonitor // nil 허용
	logger   *zap.Logger
}

// NewPublishService PublishService 생성
func NewPublishService(repo SubmissionAPI, sessions session.Store, monitor *BuildMonitor) *PublishService {
	return &PublishService{
		repo:     repo,
		sessions: sessions,
		monitor:  monitor,
		logger:   logger.L(),
	}
}

// Resolve 현재 워크플로우 위치 계산. 읽기 전용 프로브이므로 원격 조회가
// 실패하면 캐시 또는 "시작 전" 기본값으로 강등된다
func (s *PublishService) Resolve(ctx context.Context, appID, platformValue string) (workflow.State, *models.Submission, error) {
	strat, err := platform.FromString(platformValue)
	if err != nil {
		return workflow.State{}, nil, err
	}

	sub := s.currentSubmission(ctx, appID, strat)
	state := workflow.ResolveState(sub, strat)

	// 실데이터에서 관측된 적 없는 상태값은 기록해 둔다
	if sub != nil && !sub.Active() && !sub.Status.Terminal() {
		s.logger.Warn("Submission in unexpected status",
			zap.String("appId", appID),
			zap.String("submissionId", sub.ID),
			zap.String("status", string(sub.Status)))
	}

	// 빌드가 돌고 있으면 모니터가 붙어 있는지 확인 (재기동 후 복구 경로)
	if s.monitor != nil && sub.Active() && sub.Data.Status == models.StepStatusBuildTriggered {
		s.monitor.Watch(appID, strat.Platform(), sub.ID)
	}

	return state, sub, nil
}

// Progress 표시용 진행 상황 계산. Resolve와 같은 강등 규칙을 따른다
func (s *PublishService) Progress(ctx context.Context, appID, platformValue string) (workflow.Progress, error) {
	strat, err := platform.FromString(platformValue)
	if err != nil {
		return workflow.Progress{}, err
	}

	sub := s.currentSubmission(ctx, appID, strat)
	return workflow.ProjectProgress(sub, strat), nil
}

// List 플랫폼의 제출 이력 조회
func (s *PublishService) List(ctx context.Context, appID, platformValue, status string) ([]*models.Submission, error) {
	strat, err := platform.FromString(platformValue)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, appID, strat.Platform(), status)
}

// CreateSubmission 새 제출 생성. 최신 제출이 진행 중이면 거부한다
func (s *PublishService) CreateSubmission(ctx context.Context, appID, platformValue string, req models.CreateSubmissionRequest) (*models.Submission, error) {
	strat, err := platform.FromString(platformValue)
	if err != nil {
		return nil, err
	}

	// 검증은 항상 네트워크 호출보다 먼저
	if strat.RequiresTeamID() && strings.TrimSpace(req.TeamID) == "" {
		return nil, missingParam("teamId")
	}
	if req.TeamID != "" && !validTeamID(req.TeamID) {
		return nil, &ValidationError{Field: "teamId", Reason: "must be a 10 character alphanumeric identifier"}
	}

	latest, err := s.repo.Latest(ctx, appID, strat.Platform())
	if err != nil {
		return nil, fmt.Errorf("failed to check latest submission: %w", err)
	}
	if latest.Active() {
		return nil, ErrActiveSubmissionExists
	}

	sess, err := s.loadSession(ctx, appID, strat.Platform())
	if err != nil {
		return nil, err
	}
	if err := s.ensureOrganization(ctx, sess); err != nil {
		return nil, err
	}

	sub, err := s.repo.Create(ctx, appID, strat.Platform(), models.SubmissionData{TeamID: req.TeamID})
	if err != nil {
		return nil, err
	}

	sess.Current = sub
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Warn("Failed to cache new submission",
			zap.String("appId", appID),
			zap.Error(err))
	}

	s.logger.Info("Submission created",
		zap.String("appId", appID),
		zap.String("platform", platformValue),
		zap.String("submissionId", sub.ID))

	return sub, nil
}

// SubmitStoreConfig 스토어 설정 단계 제출
func (s *PublishService) SubmitStoreConfig(ctx context.Context, appID, submissionID string, payload models.StoreConfigPayload) (*models.Submission, error) {
	current, strat, sess, err := s.lookup(ctx, appID, submissionID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(payload.BundleID) == "" {
		return nil, missingParam("bundleId")
	}
	if !validBundleID(payload.BundleID) {
		return nil, &ValidationError{Field: "bundleId", Reason: "must be a reverse-domain identifier"}
	}
	if payload.Version != "" && !validVersion(payload.Version) {
		return nil, &ValidationError{Field: "version", Reason: "must match major.minor or major.minor.patch"}
	}
	if strat.RequiresVersionCode() && strings.TrimSpace(payload.VersionCode) == "" {
		return nil, missingParam("fl-store-versionCode")
	}
	if payload.TeamID != "" && !validTeamID(payload.TeamID) {
		return nil, &ValidationError{Field: "teamId", Reason: "must be a 10 character alphanumeric identifier"}
	}
	if payload.APIKeyID != "" && !validAPIKeyID(payload.APIKeyID) {
		return nil, &ValidationError{Field: "fl-credential-apiKeyId", Reason: "must be a 10 character alphanumeric identifier"}
	}

	return s.advance(ctx, sess, current, "submit store config", models.StepStatusStoreConfigSubmitted,
		func(ctx context.Context) error {
			return s.repo.PutStoreConfig(ctx, appID, submissionID, payload)
		},
		func(sub *models.Submission) {
			sub.Data.TeamID = firstNonEmpty(payload.TeamID, sub.Data.TeamID)
			sub.Data.BundleID = payload.BundleID
			sub.Data.Version = firstNonEmpty(payload.Version, sub.Data.Version)
			sub.Data.VersionCode = firstNonEmpty(payload.VersionCode, sub.Data.VersionCode)
			sub.Data.APIKeyID = firstNonEmpty(payload.APIKeyID, sub.Data.APIKeyID)
		})
}

// SubmitPushConfig 푸시 알림 설정 단계 제출
func (s *PublishService) SubmitPushConfig(ctx context.Context, appID, submissionID string, payload models.PushConfigPayload) (*models.Submission, error) {
	current, strat, sess, err := s.lookup(ctx, appID, submissionID)
	if err != nil {
		return nil, err
	}

	credential := payload.FCMServerKey
	if strat.Platform() == models.PlatformIOS {
		credential = payload.APNSAuthKey
	}
	if strings.TrimSpace(credential) == "" {
		return nil, missingParam(strat.PushCredentialField())
	}

	return s.advance(ctx, sess, current, "submit push config", models.StepStatusPushConfigured,
		func(ctx context.Context) error {
			return s.repo.PutPushConfig(ctx, appID, submissionID, payload)
		}, nil)
}

// SubmitMetadata 스토어 메타데이터 단계 제출.
// 이번 단계에서 새로 업로드된 스플래시 에셋은 제출 전에 항상 encrypted로
// 표시된다 (사용자 제어가 아닌 고정 변환)
func (s *PublishService) SubmitMetadata(ctx context.Context, appID, submissionID string, payload models.MetadataPayload) (*models.Submission, error) {
	current, _, sess, err := s.lookup(ctx, appID, submissionID)
	if err != nil {
		return nil, err
	}

	if payload.SplashScreenUploaded && payload.SplashScreen != nil {
		payload.SplashScreen.Encrypted = true
	}

	return s.advance(ctx, sess, current, "submit metadata", models.StepStatusMetadataSubmitted,
		func(ctx context.Context) error {
			return s.repo.PutMetadata(ctx, appID, submissionID, payload)
		},
		func(sub *models.Submission) {
			if payload.SplashScreen != nil {
				splash := *payload.SplashScreen
				sub.Data.SplashScreen = &splash
			}
		})
}

// TriggerBuild 빌드 트리거. 되돌릴 수 없는 원격 동작 직전의 마지막 관문이므로
// 로컬 캐시가 정확히 METADATA_SUBMITTED일 때만 허용한다
func (s *PublishService) TriggerBuild(ctx context.Context, appID, submissionID string) (*models.Submission, string, error) {
	current, strat, sess, err := s.lookup(ctx, appID, submissionID)
	if err != nil {
		return nil, "", err
	}

	if !current.Active() {
		return nil, "", ErrSubmissionNotActive
	}
	if current.Data.Status != models.StepStatusMetadataSubmitted {
		return nil, "", &SequencingError{
			Operation: "trigger build",
			Expected:  models.StepStatusMetadataSubmitted,
			Actual:    current.Data.Status,
		}
	}

	buildID, err := s.repo.PostBuild(ctx, appID, submissionID)
	if err != nil {
		return nil, "", err
	}

	updated := *current
	updated.Data.Status = models.StepStatusBuildTriggered
	updated.Data.BuildID = buildID
	sess.Current = &updated
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Warn("Failed to cache build trigger",
			zap.String("submissionId", submissionID),
			zap.Error(err))
	}

	s.logger.Info("Build triggered",
		zap.String("appId", appID),
		zap.String("submissionId", submissionID),
		zap.String("buildId", buildID))

	if s.monitor != nil {
		s.monitor.Watch(appID, strat.Platform(), submissionID)
	}

	return &updated, buildID, nil
}

// CancelBuild 진행 중인 제출 취소
func (s *PublishService) CancelBuild(ctx context.Context, appID, submissionID string) (*models.Submission, error) {
	current, _, sess, err := s.lookup(ctx, appID, submissionID)
	if err != nil {
		return nil, err
	}

	if !current.Active() {
		return nil, ErrSubmissionNotActive
	}

	if err := s.repo.PostCancel(ctx, appID, submissionID); err != nil {
		return nil, err
	}

	updated := *current
	updated.Status = models.SubmissionStatusCancelled
	sess.Current = &updated
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Warn("Failed to cache cancellation",
			zap.String("submissionId", submissionID),
			zap.Error(err))
	}

	if s.monitor != nil {
		s.monitor.Unwatch(appID, submissionID)
	}

	s.logger.Info("Submission cancelled",
		zap.String("appId", appID),
		zap.String("submissionId", submissionID))

	return &updated, nil
}

// advance 공통 전이 처리: 단계 순서 검사 → 원격 호출 → 성공 시에만 로컬 전진
func (s *PublishService) advance(
	ctx context.Context,
	sess *session.Session,
	current *models.Submission,
	operation string,
	target models.StepStatus,
	call func(context.Context) error,
	merge func(*models.Submission),
) (*models.Submission, error) {
	if !current.Active() {
		return nil, ErrSubmissionNotActive
	}

	// 요청한 전이의 바로 이전 단계에 있어야 한다 (건너뛰기/중복 방지)
	if !current.Data.Status.Precedes(target) {
		return nil, &SequencingError{
			Operation: operation,
			Expected:  previousStep(target),
			Actual:    current.Data.Status,
		}
	}

	if err := call(ctx); err != nil {
		// 원격 실패 시 로컬 캐시는 그대로: 재시도는 항상 안전
		return nil, err
	}

	updated := *current
	updated.Data.Status = target
	if merge != nil {
		merge(&updated)
	}

	sess.Current = &updated
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Warn("Failed to cache step advance",
			zap.String("submissionId", updated.ID),
			zap.String("step", string(target)),
			zap.Error(err))
	}

	s.logger.Info("Workflow step completed",
		zap.String("appId", sess.AppID),
		zap.String("submissionId", updated.ID),
		zap.String("step", string(target)))

	return &updated, nil
}

// lookup 제출 캐시 조회. 세션에 없으면 원격에서 가져와 세션을 채운다
func (s *PublishService) lookup(ctx context.Context, appID, submissionID string) (*models.Submission, *platform.Strategy, *session.Session, error) {
	for _, strat := range []*platform.Strategy{platform.IOS(), platform.Android()} {
		sess, err := s.sessions.Get(ctx, appID, strat.Platform())
		if err != nil {
			s.logger.Warn("Session read failed",
				zap.String("appId", appID),
				zap.Error(err))
			continue
		}
		if sess != nil && sess.Current != nil && sess.Current.ID == submissionID {
			return sess.Current, strat, sess, nil
		}
	}

	sub, err := s.repo.GetByID(ctx, appID, submissionID)
	if err != nil {
		// 404만 "제출 없음"으로 변환한다. 일시 장애(5xx, 타임아웃)를
		// 404로 뭉개면 UI가 멀쩡한 제출을 버리고 새로 만들게 된다
		var remoteErr *apiclient.RemoteError
		if errors.As(err, &remoteErr) && remoteErr.NotFound() {
			return nil, nil, nil, ErrSubmissionNotFound
		}
		return nil, nil, nil, err
	}

	strat, err := platform.FromString(string(sub.Platform))
	if err != nil {
		return nil, nil, nil, err
	}

	sess, err := s.loadSession(ctx, appID, strat.Platform())
	if err != nil {
		return nil, nil, nil, err
	}
	sess.Current = sub

	return sub, strat, sess, nil
}

// currentSubmission 읽기 전용 프로브용 최신 제출 조회.
// 원격 실패 시 세션 캐시로, 그것도 없으면 nil("시작 전")로 강등된다
func (s *PublishService) currentSubmission(ctx context.Context, appID string, strat *platform.Strategy) *models.Submission {
	sub, err := s.repo.Latest(ctx, appID, strat.Platform())
	if err == nil {
		sess, sessErr := s.loadSession(ctx, appID, strat.Platform())
		if sessErr == nil {
			sess.Current = sub
			if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
				s.logger.Warn("Failed to refresh session cache",
					zap.String("appId", appID),
					zap.Error(saveErr))
			}
		}
		return sub
	}

	s.logger.Warn("Falling back to cached submission",
		zap.String("appId", appID),
		zap.String("platform", string(strat.Platform())),
		zap.Error(err))

	sess, sessErr := s.sessions.Get(ctx, appID, strat.Platform())
	if sessErr != nil || sess == nil {
		return nil
	}
	return sess.Current
}

// loadSession 세션 조회, 없으면 새로 만든다
func (s *PublishService) loadSession(ctx context.Context, appID string, p models.Platform) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, appID, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		sess = &session.Session{AppID: appID, Platform: p}
	}
	return sess, nil
}

// ensureOrganization organizationId를 처음 필요할 때 한 번 조회해 세션에 캐시
func (s *PublishService) ensureOrganization(ctx context.Context, sess *session.Session) error {
	if sess.OrganizationID != "" {
		return nil
	}

	app, err := s.repo.FetchApp(ctx, sess.AppID)
	if err != nil {
		return fmt.Errorf("failed to resolve organization: %w", err)
	}

	sess.OrganizationID = app.OrganizationID
	return nil
}

// previousStep target 바로 이전 단계
func previousStep(target models.StepStatus) models.StepStatus {
	rank, ok := target.Rank()
	if !ok || rank == 0 {
		return models.StepStatusInitialized
	}
	for _, status := range []models.StepStatus{
		models.StepStatusInitialized,
		models.StepStatusStoreConfigSubmitted,
		models.StepStatusPushConfigured,
		models.StepStatusMetadataSubmitted,
		models.StepStatusBuildTriggered,
	} {
		if r, _ := status.Rank(); r == rank-1 {
			return status
		}
	}
	return models.StepStatusInitialized
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
