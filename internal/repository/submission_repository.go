package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/apiclient"
)

// SubmissionRepository 원격 제출 추적 API의 얇은 타입 래퍼.
// 도메인 연산을 전송 계층 호출로 변환할 뿐 상태를 갖지 않는다.
type SubmissionRepository struct {
	api *apiclient.Client
}

func NewSubmissionRepository(api *apiclient.Client) *SubmissionRepository {
	return &SubmissionRepository{api: api}
}

// submissionEnvelope 단건 응답 형식
type submissionEnvelope struct {
	Submission models.Submission `json:"submission"`
}

// submissionListEnvelope 목록 응답 형식
type submissionListEnvelope struct {
	Submissions []*models.Submission `json:"submissions"`
}

// FetchApp 앱 레코드 조회 (organizationId의 출처)
func (r *SubmissionRepository) FetchApp(ctx context.Context, appID string) (*models.App, error) {
	var out struct {
		App models.App `json:"app"`
	}
	if err := r.api.Get(ctx, fmt.Sprintf("/v1/apps/%s", appID), &out); err != nil {
		return nil, fmt.Errorf("failed to fetch app: %w", err)
	}
	return &out.App, nil
}

// Latest 플랫폼의 최신 제출 조회. 없으면 nil 반환
func (r *SubmissionRepository) Latest(ctx context.Context, appID string, p models.Platform) (*models.Submission, error) {
	path := fmt.Sprintf("/v1/apps/%s/submissions/latest?platform=%s&type=%s",
		appID, url.QueryEscape(string(p)), models.SubmissionTypeAppStore)

	var out submissionEnvelope
	if err := r.api.Get(ctx, path, &out); err != nil {
		var remoteErr *apiclient.RemoteError
		if errors.As(err, &remoteErr) && remoteErr.NotFound() {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch latest submission: %w", err)
	}
	return &out.Submission, nil
}

// GetByID 제출 단건 조회
func (r *SubmissionRepository) GetByID(ctx context.Context, appID, submissionID string) (*models.Submission, error) {
	var out submissionEnvelope
	path := fmt.Sprintf("/v1/apps/%s/submissions/%s", appID, submissionID)
	if err := r.api.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}
	return &out.Submission, nil
}

// Create 새 제출 생성. 원격 시스템이 id와 INITIALIZED 상태를 부여한다
func (r *SubmissionRepository) Create(ctx context.Context, appID string, p models.Platform, data models.SubmissionData) (*models.Submission, error) {
	body := map[string]interface{}{
		"platform": p,
		"type":     models.SubmissionTypeAppStore,
		"data":     data,
	}

	var out submissionEnvelope
	path := fmt.Sprintf("/v1/apps/%s/submissions", appID)
	if err := r.api.Post(ctx, path, body, &out); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return &out.Submission, nil
}

// PutStoreConfig 스토어 설정 제출
func (r *SubmissionRepository) PutStoreConfig(ctx context.Context, appID, submissionID string, payload models.StoreConfigPayload) error {
	path := fmt.Sprintf("/v1/apps/%s/submissions/%s/store-config", appID, submissionID)
	if err := r.api.Put(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("failed to submit store config: %w", err)
	}
	return nil
}

// PutPushConfig 푸시 알림 설정 제출
func (r *SubmissionRepository) PutPushConfig(ctx context.Context, appID, submissionID string, payload models.PushConfigPayload) error {
	path := fmt.Sprintf("/v1/apps/%s/submissions/%s/push-config", appID, submissionID)
	if err := r.api.Put(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("failed to submit push config: %w", err)
	}
	return nil
}

// PutMetadata 스토어 메타데이터 제출
func (r *SubmissionRepository) PutMetadata(ctx context.Context, appID, submissionID string, payload models.MetadataPayload) error {
	path := fmt.Sprintf("/v1/apps/%s/submissions/%s/metadata", appID, submissionID)
	if err := r.api.Put(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("failed to submit metadata: %w", err)
	}
	return nil
}

// PostBuild 빌드 트리거. buildId를 반환한다
func (r *SubmissionRepository) PostBuild(ctx context.Context, appID, submissionID string) (string, error) {
	var out struct {
		BuildID string `json:"buildId"`
	}
	path := fmt.Sprintf("/v1/apps/%s/submissions/%s/build", appID, submissionID)
	if err := r.api.Post(ctx, path, map[string]interface{}{}, &out); err != nil {
		return "", fmt.Errorf("failed to trigger build: %w", err)
	}
	return out.BuildID, nil
}

// PostCancel 진행 중인 제출 취소
func (r *SubmissionRepository) PostCancel(ctx context.Context, appID, submissionID string) error {
	path := fmt.Sprintf("/v1/apps/%s/submissions/%s/cancel", appID, submissionID)
	if err := r.api.Post(ctx, path, map[string]interface{}{}, nil); err != nil {
		return fmt.Errorf("failed to cancel submission: %w", err)
	}
	return nil
}

// List 플랫폼의 제출 목록 조회. status는 선택 필터
func (r *SubmissionRepository) List(ctx context.Context, appID string, p models.Platform, status string) ([]*models.Submission, error) {
	path := fmt.Sprintf("/v1/apps/%s/submissions?platform=%s&type=%s",
		appID, url.QueryEscape(string(p)), models.SubmissionTypeAppStore)
	if status != "" {
		path += "&status=" + url.QueryEscape(status)
	}

	var out submissionListEnvelope
	if err := r.api.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return out.Submissions, nil
}
