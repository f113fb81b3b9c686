package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
	"github.com/Fliplet/fliplet-widget-publishing/internal/platform"
	"github.com/Fliplet/fliplet-widget-publishing/internal/service"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/apiclient"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/locking"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/logger"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/storage"
)

// 뮤테이션 직렬화 락 유지 시간. 원격 API 타임아웃보다 여유 있게 잡는다
const mutationLockTTL = 30 * time.Second

// PublishHandler 퍼블리싱 워크플로우 엔드포인트
type PublishHandler struct {
	service *service.PublishService
	locks   locking.Manager
	assets  *storage.Storage
}

// NewPublishHandler PublishHandler 생성
func NewPublishHandler(svc *service.PublishService, locks locking.Manager, assets *storage.Storage) *PublishHandler {
	return &PublishHandler{
		service: svc,
		locks:   locks,
		assets:  assets,
	}
}

// GetState 현재 워크플로우 단계 조회
func (h *PublishHandler) GetState(c *gin.Context) {
	appID := c.Param("appId")
	platformValue := c.Param("platform")

	state, sub, err := h.service.Resolve(c.Request.Context(), appID, platformValue)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"state": state}
	if sub != nil {
		resp["submission"] = sub
	}
	c.JSON(http.StatusOK, resp)
}

// GetProgress 표시용 진행 상황 조회
func (h *PublishHandler) GetProgress(c *gin.Context) {
	appID := c.Param("appId")
	platformValue := c.Param("platform")

	progress, err := h.service.Progress(c.Request.Context(), appID, platformValue)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// ListSubmissions 제출 이력 조회
func (h *PublishHandler) ListSubmissions(c *gin.Context) {
	appID := c.Param("appId")
	platformValue := c.Param("platform")
	status := c.Query("status")

	submissions, err := h.service.List(c.Request.Context(), appID, platformValue, status)
	if err != nil {
		respondError(c, err)
		return
	}

	if submissions == nil {
		submissions = []*models.Submission{}
	}
	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// CreateSubmission 새 제출 생성
func (h *PublishHandler) CreateSubmission(c *gin.Context) {
	appID := c.Param("appId")
	platformValue := c.Param("platform")

	var req models.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	// 생성은 (앱, 플랫폼) 단위로 직렬화 (중복 생성 경합 방지)
	lock, err := h.locks.Acquire(c.Request.Context(), "publish:lock:create:"+appID+":"+platformValue, mutationLockTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	defer h.release(lock)

	sub, err := h.service.CreateSubmission(c.Request.Context(), appID, platformValue, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": sub})
}

// SubmitStoreConfig 스토어 설정 단계 제출
func (h *PublishHandler) SubmitStoreConfig(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, appID, submissionID string) (*models.Submission, error) {
		var payload models.StoreConfigPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			return nil, &service.ValidationError{Field: "body", Reason: err.Error()}
		}
		return h.service.SubmitStoreConfig(ctx, appID, submissionID, payload)
	})
}

// SubmitPushConfig 푸시 알림 설정 단계 제출
func (h *PublishHandler) SubmitPushConfig(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, appID, submissionID string) (*models.Submission, error) {
		var payload models.PushConfigPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			return nil, &service.ValidationError{Field: "body", Reason: err.Error()}
		}
		return h.service.SubmitPushConfig(ctx, appID, submissionID, payload)
	})
}

// SubmitMetadata 스토어 메타데이터 단계 제출
func (h *PublishHandler) SubmitMetadata(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, appID, submissionID string) (*models.Submission, error) {
		var payload models.MetadataPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			return nil, &service.ValidationError{Field: "body", Reason: err.Error()}
		}
		return h.service.SubmitMetadata(ctx, appID, submissionID, payload)
	})
}

// TriggerBuild 빌드 트리거
func (h *PublishHandler) TriggerBuild(c *gin.Context) {
	appID := c.Param("appId")
	submissionID := c.Param("id")

	lock, err := h.locks.Acquire(c.Request.Context(), "publish:lock:"+submissionID, mutationLockTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	defer h.release(lock)

	sub, buildID, err := h.service.TriggerBuild(c.Request.Context(), appID, submissionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submission": sub,
		"buildId":    buildID,
	})
}

// CancelBuild 제출 취소
func (h *PublishHandler) CancelBuild(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, appID, submissionID string) (*models.Submission, error) {
		return h.service.CancelBuild(ctx, appID, submissionID)
	})
}

// UploadAsset 에셋 업로드 (스플래시 스크린 등). 메타데이터 제출 전에
// 파일을 스테이징하고 참조 URL을 돌려준다
func (h *PublishHandler) UploadAsset(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "file is required",
		})
		return
	}

	path, err := h.assets.SaveAsset(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"path": path,
		"url":  h.assets.AssetURL(path),
	})
}

// mutate 제출 단위 락 아래에서 전이 실행
func (h *PublishHandler) mutate(c *gin.Context, fn func(ctx context.Context, appID, submissionID string) (*models.Submission, error)) {
	appID := c.Param("appId")
	submissionID := c.Param("id")

	lock, err := h.locks.Acquire(c.Request.Context(), "publish:lock:"+submissionID, mutationLockTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	defer h.release(lock)

	sub, err := fn(c.Request.Context(), appID, submissionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

func (h *PublishHandler) release(lock locking.Lock) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lock.Release(ctx); err != nil && !errors.Is(err, locking.ErrLockNotHeld) {
		logger.Warn("Failed to release mutation lock", "error", err)
	}
}

// respondError 서비스 오류를 HTTP 응답으로 변환
func respondError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	var pErr *platform.InvalidPlatformError
	var sErr *service.SequencingError
	var rErr *apiclient.RemoteError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": vErr.Error(),
			"field": vErr.Field,
		})

	case errors.As(err, &pErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": pErr.Error(),
		})

	case errors.As(err, &sErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":    sErr.Error(),
			"expected": sErr.Expected,
			"actual":   sErr.Actual,
		})

	case errors.Is(err, service.ErrActiveSubmissionExists):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})

	case errors.Is(err, service.ErrSubmissionNotActive):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})

	case errors.Is(err, service.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Submission not found",
		})

	case errors.Is(err, locking.ErrLockNotAcquired):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Another operation is in progress for this submission",
		})

	case errors.As(err, &rErr):
		// 원격 시스템 오류는 코드를 그대로 노출 (UI가 메시지 매핑)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": rErr.Message,
			"code":  rErr.Code,
		})

	default:
		logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
