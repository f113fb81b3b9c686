package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
	"github.com/Fliplet/fliplet-widget-publishing/internal/session"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/apiclient"
)

// fakeSubmissionAPI 호출 기록이 남는 SubmissionAPI 테스트 대역
type fakeSubmissionAPI struct {
	mu     sync.Mutex
	app    *models.App
	latest *models.Submission
	byID   map[string]*models.Submission

	getByIDErr        error
	putStoreConfigErr error
	putPushConfigErr  error
	putMetadataErr    error
	postBuildErr      error
	buildID           string

	calls []string

	lastStoreConfig models.StoreConfigPayload
	lastPushConfig  models.PushConfigPayload
	lastMetadata    models.MetadataPayload
}

func newFakeAPI() *fakeSubmissionAPI {
	return &fakeSubmissionAPI{
		app:     &models.App{ID: "app-1", OrganizationID: "org-1"},
		byID:    make(map[string]*models.Submission),
		buildID: "build-1",
	}
}

func (f *fakeSubmissionAPI) FetchApp(_ context.Context, _ string) (*models.App, error) {
	f.calls = append(f.calls, "FetchApp")
	return f.app, nil
}

func (f *fakeSubmissionAPI) Latest(_ context.Context, _ string, _ models.Platform) (*models.Submission, error) {
	f.calls = append(f.calls, "Latest")
	return f.latest, nil
}

func (f *fakeSubmissionAPI) GetByID(_ context.Context, _, submissionID string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "GetByID")
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	sub, ok := f.byID[submissionID]
	if !ok {
		return nil, &apiclient.RemoteError{StatusCode: http.StatusNotFound, Message: "submission not found"}
	}
	copied := *sub
	return &copied, nil
}

// setStatus 모니터 폴러와 경합하지 않고 제출 상태 변경
func (f *fakeSubmissionAPI) setStatus(submissionID string, status models.SubmissionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[submissionID].Status = status
}

func (f *fakeSubmissionAPI) Create(_ context.Context, appID string, p models.Platform, data models.SubmissionData) (*models.Submission, error) {
	f.calls = append(f.calls, "Create")
	data.Status = models.StepStatusInitialized
	sub := &models.Submission{
		ID:       "sub-new",
		AppID:    appID,
		Platform: p,
		Type:     models.SubmissionTypeAppStore,
		Status:   models.SubmissionStatusStarted,
		Data:     data,
	}
	f.byID[sub.ID] = sub
	return sub, nil
}

func (f *fakeSubmissionAPI) PutStoreConfig(_ context.Context, _, _ string, payload models.StoreConfigPayload) error {
	f.calls = append(f.calls, "PutStoreConfig")
	f.lastStoreConfig = payload
	return f.putStoreConfigErr
}

func (f *fakeSubmissionAPI) PutPushConfig(_ context.Context, _, _ string, payload models.PushConfigPayload) error {
	f.calls = append(f.calls, "PutPushConfig")
	f.lastPushConfig = payload
	return f.putPushConfigErr
}

func (f *fakeSubmissionAPI) PutMetadata(_ context.Context, _, _ string, payload models.MetadataPayload) error {
	f.calls = append(f.calls, "PutMetadata")
	f.lastMetadata = payload
	return f.putMetadataErr
}

func (f *fakeSubmissionAPI) PostBuild(_ context.Context, _, _ string) (string, error) {
	f.calls = append(f.calls, "PostBuild")
	if f.postBuildErr != nil {
		return "", f.postBuildErr
	}
	return f.buildID, nil
}

func (f *fakeSubmissionAPI) PostCancel(_ context.Context, _, _ string) error {
	f.calls = append(f.calls, "PostCancel")
	return nil
}

func (f *fakeSubmissionAPI) List(_ context.Context, _ string, _ models.Platform, _ string) ([]*models.Submission, error) {
	f.calls = append(f.calls, "List")
	if f.latest == nil {
		return nil, nil
	}
	return []*models.Submission{f.latest}, nil
}

func seedSubmission(t *testing.T, sessions session.Store, p models.Platform, step models.StepStatus) *models.Submission {
	t.Helper()
	sub := &models.Submission{
		ID:       "sub-1",
		AppID:    "app-1",
		Platform: p,
		Type:     models.SubmissionTypeAppStore,
		Status:   models.SubmissionStatusStarted,
		Data:     models.SubmissionData{Status: step, TeamID: "ABCDE12345"},
	}
	err := sessions.Save(context.Background(), &session.Session{
		AppID:    "app-1",
		Platform: p,
		Current:  sub,
	})
	require.NoError(t, err)
	return sub
}

func TestCreateSubmission(t *testing.T) {
	t.Run("iOS requires teamId", func(t *testing.T) {
		api := newFakeAPI()
		svc := NewPublishService(api, session.NewMemoryStore(), nil)

		_, err := svc.CreateSubmission(context.Background(), "app-1", "ios", models.CreateSubmissionRequest{})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "teamId", vErr.Field)
		assert.Empty(t, api.calls, "validation failures must not reach the remote API")
	})

	t.Run("iOS rejects malformed teamId", func(t *testing.T) {
		api := newFakeAPI()
		svc := NewPublishService(api, session.NewMemoryStore(), nil)

		_, err := svc.CreateSubmission(context.Background(), "app-1", "ios",
			models.CreateSubmissionRequest{TeamID: "short"})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "teamId", vErr.Field)
		assert.Empty(t, api.calls)
	})

	t.Run("blocked while a submission is active", func(t *testing.T) {
		api := newFakeAPI()
		api.latest = &models.Submission{
			ID:     "sub-0",
			Status: models.SubmissionStatusStarted,
			Data:   models.SubmissionData{Status: models.StepStatusMetadataSubmitted},
		}
		svc := NewPublishService(api, session.NewMemoryStore(), nil)

		_, err := svc.CreateSubmission(context.Background(), "app-1", "android", models.CreateSubmissionRequest{})

		assert.ErrorIs(t, err, ErrActiveSubmissionExists)
		assert.NotContains(t, api.calls, "Create")
	})

	t.Run("allowed after a terminal submission", func(t *testing.T) {
		api := newFakeAPI()
		api.latest = &models.Submission{
			ID:     "sub-0",
			Status: models.SubmissionStatusFailed,
			Data:   models.SubmissionData{Status: models.StepStatusBuildTriggered},
		}
		sessions := session.NewMemoryStore()
		svc := NewPublishService(api, sessions, nil)

		sub, err := svc.CreateSubmission(context.Background(), "app-1", "ios",
			models.CreateSubmissionRequest{TeamID: "ABCDE12345"})

		require.NoError(t, err)
		assert.Equal(t, models.StepStatusInitialized, sub.Data.Status)

		sess, err := sessions.Get(context.Background(), "app-1", models.PlatformIOS)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, "org-1", sess.OrganizationID, "organizationId should be cached on first use")
		assert.Equal(t, sub.ID, sess.Current.ID)
	})
}

func TestSubmitStoreConfig(t *testing.T) {
	t.Run("rejects four-segment version before any network call", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusInitialized)
		svc := NewPublishService(api, sessions, nil)

		_, err := svc.SubmitStoreConfig(context.Background(), "app-1", "sub-1", models.StoreConfigPayload{
			BundleID: "com.example.app",
			Version:  "1.2.3.4",
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "version", vErr.Field)
		assert.Empty(t, api.calls, "validation failures must not reach the remote API")
	})

	t.Run("android requires fl-store-versionCode", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformAndroid, models.StepStatusInitialized)
		svc := NewPublishService(api, sessions, nil)

		_, err := svc.SubmitStoreConfig(context.Background(), "app-1", "sub-1", models.StoreConfigPayload{
			BundleID: "com.example.app",
			Version:  "1.2.0",
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "fl-store-versionCode", vErr.Field)
		assert.Empty(t, api.calls)
	})

	t.Run("advances local state only after remote success", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusInitialized)
		svc := NewPublishService(api, sessions, nil)

		sub, err := svc.SubmitStoreConfig(context.Background(), "app-1", "sub-1", models.StoreConfigPayload{
			BundleID: "com.example.app",
			Version:  "2.0",
		})

		require.NoError(t, err)
		assert.Equal(t, models.StepStatusStoreConfigSubmitted, sub.Data.Status)
		assert.Equal(t, "com.example.app", sub.Data.BundleID)

		sess, err := sessions.Get(context.Background(), "app-1", models.PlatformIOS)
		require.NoError(t, err)
		assert.Equal(t, models.StepStatusStoreConfigSubmitted, sess.Current.Data.Status)
	})

	t.Run("remote failure leaves local state untouched", func(t *testing.T) {
		api := newFakeAPI()
		api.putStoreConfigErr = errors.New("remote: BUNDLE_ID_TAKEN")
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusInitialized)
		svc := NewPublishService(api, sessions, nil)

		_, err := svc.SubmitStoreConfig(context.Background(), "app-1", "sub-1", models.StoreConfigPayload{
			BundleID: "com.example.app",
		})

		require.Error(t, err)

		sess, getErr := sessions.Get(context.Background(), "app-1", models.PlatformIOS)
		require.NoError(t, getErr)
		assert.Equal(t, models.StepStatusInitialized, sess.Current.Data.Status,
			"a failed step must be retryable from the same state")
	})

	t.Run("rejects repeat of a completed step", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusStoreConfigSubmitted)
		svc := NewPublishService(api, sessions, nil)

		_, err := svc.SubmitStoreConfig(context.Background(), "app-1", "sub-1", models.StoreConfigPayload{
			BundleID: "com.example.app",
		})

		var sErr *SequencingError
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, models.StepStatusInitialized, sErr.Expected)
		assert.Equal(t, models.StepStatusStoreConfigSubmitted, sErr.Actual)
		assert.Empty(t, api.calls)
	})
}

func TestSubmitPushConfig(t *testing.T) {
	t.Run("iOS requires apns auth key", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusStoreConfigSubmitted)
		svc := NewPublishService(api, sessions, nil)

		_, err := svc.SubmitPushConfig(context.Background(), "app-1", "sub-1", models.PushConfigPayload{
			FCMServerKey: "irrelevant-for-ios",
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "fl-push-apnsAuthKey", vErr.Field)
	})

	t.Run("android requires fcm server key", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformAndroid, models.StepStatusStoreConfigSubmitted)
		svc := NewPublishService(api, sessions, nil)

		_, err := svc.SubmitPushConfig(context.Background(), "app-1", "sub-1", models.PushConfigPayload{})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "fl-push-fcmServerKey", vErr.Field)
	})

	t.Run("advances to push configured", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformAndroid, models.StepStatusStoreConfigSubmitted)
		svc := NewPublishService(api, sessions, nil)

		sub, err := svc.SubmitPushConfig(context.Background(), "app-1", "sub-1", models.PushConfigPayload{
			FCMServerKey: "server-key",
		})

		require.NoError(t, err)
		assert.Equal(t, models.StepStatusPushConfigured, sub.Data.Status)
	})
}

func TestSubmitMetadata(t *testing.T) {
	t.Run("freshly uploaded splash screen is always encrypted", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusPushConfigured)
		svc := NewPublishService(api, sessions, nil)

		sub, err := svc.SubmitMetadata(context.Background(), "app-1", "sub-1", models.MetadataPayload{
			AppName:              "Demo",
			SplashScreen:         &models.SplashScreen{AssetURL: "https://cdn.example.com/splash.png"},
			SplashScreenUploaded: true,
		})

		require.NoError(t, err)
		assert.True(t, api.lastMetadata.SplashScreen.Encrypted)
		assert.True(t, sub.Data.SplashScreen.Encrypted)
		assert.Equal(t, models.StepStatusMetadataSubmitted, sub.Data.Status)
	})

	t.Run("existing splash screen reference is sent unchanged", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusPushConfigured)
		svc := NewPublishService(api, sessions, nil)

		_, err := svc.SubmitMetadata(context.Background(), "app-1", "sub-1", models.MetadataPayload{
			SplashScreen: &models.SplashScreen{AssetURL: "https://cdn.example.com/splash.png"},
		})

		require.NoError(t, err)
		assert.False(t, api.lastMetadata.SplashScreen.Encrypted)
	})
}

func TestTriggerBuild(t *testing.T) {
	t.Run("requires metadata submitted exactly", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusPushConfigured)
		svc := NewPublishService(api, sessions, nil)

		_, _, err := svc.TriggerBuild(context.Background(), "app-1", "sub-1")

		var sErr *SequencingError
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, models.StepStatusMetadataSubmitted, sErr.Expected)
		assert.Equal(t, models.StepStatusPushConfigured, sErr.Actual)
		assert.NotContains(t, api.calls, "PostBuild")
	})

	t.Run("records the build id", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusMetadataSubmitted)
		svc := NewPublishService(api, sessions, nil)

		sub, buildID, err := svc.TriggerBuild(context.Background(), "app-1", "sub-1")

		require.NoError(t, err)
		assert.Equal(t, "build-1", buildID)
		assert.Equal(t, models.StepStatusBuildTriggered, sub.Data.Status)
		assert.Equal(t, "build-1", sub.Data.BuildID)
	})

	t.Run("rejects terminal submissions", func(t *testing.T) {
		api := newFakeAPI()
		sessions := session.NewMemoryStore()
		sub := seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusMetadataSubmitted)
		sub.Status = models.SubmissionStatusCancelled
		require.NoError(t, sessions.Save(context.Background(), &session.Session{
			AppID:    "app-1",
			Platform: models.PlatformIOS,
			Current:  sub,
		}))
		svc := NewPublishService(api, sessions, nil)

		_, _, err := svc.TriggerBuild(context.Background(), "app-1", "sub-1")

		assert.ErrorIs(t, err, ErrSubmissionNotActive)
	})
}

func TestCancelBuild(t *testing.T) {
	api := newFakeAPI()
	sessions := session.NewMemoryStore()
	seedSubmission(t, sessions, models.PlatformAndroid, models.StepStatusBuildTriggered)
	svc := NewPublishService(api, sessions, nil)

	sub, err := svc.CancelBuild(context.Background(), "app-1", "sub-1")

	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusCancelled, sub.Status)
	assert.Contains(t, api.calls, "PostCancel")

	_, err = svc.CancelBuild(context.Background(), "app-1", "sub-1")
	assert.ErrorIs(t, err, ErrSubmissionNotActive)
}

func TestLookupFallsBackToRemote(t *testing.T) {
	api := newFakeAPI()
	api.byID["sub-9"] = &models.Submission{
		ID:       "sub-9",
		AppID:    "app-1",
		Platform: models.PlatformAndroid,
		Status:   models.SubmissionStatusStarted,
		Data:     models.SubmissionData{Status: models.StepStatusStoreConfigSubmitted},
	}
	svc := NewPublishService(api, session.NewMemoryStore(), nil)

	sub, err := svc.SubmitPushConfig(context.Background(), "app-1", "sub-9", models.PushConfigPayload{
		FCMServerKey: "server-key",
	})

	require.NoError(t, err)
	assert.Equal(t, models.StepStatusPushConfigured, sub.Data.Status)
	assert.Contains(t, api.calls, "GetByID")
}

func TestLookupUnknownSubmission(t *testing.T) {
	svc := NewPublishService(newFakeAPI(), session.NewMemoryStore(), nil)

	_, err := svc.SubmitPushConfig(context.Background(), "app-1", "missing", models.PushConfigPayload{
		FCMServerKey: "server-key",
	})

	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestLookupRemoteOutageIsNotNotFound(t *testing.T) {
	// 원격 일시 장애(5xx)는 "제출 없음"이 아니라 RemoteError 그대로
	// 전파되어야 한다. 404로 뭉개면 UI가 새 제출 생성으로 유도된다
	api := newFakeAPI()
	api.getByIDErr = &apiclient.RemoteError{StatusCode: http.StatusBadGateway, Message: "bad gateway"}
	svc := NewPublishService(api, session.NewMemoryStore(), nil)

	_, err := svc.SubmitPushConfig(context.Background(), "app-1", "sub-1", models.PushConfigPayload{
		FCMServerKey: "server-key",
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSubmissionNotFound))

	var remoteErr *apiclient.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadGateway, remoteErr.StatusCode)
}

func TestStepMonotonicity(t *testing.T) {
	// 전체 워크플로우를 순서대로 통과하며 data.status가 한 번에 한 단계씩만
	// 전진하는지 확인
	api := newFakeAPI()
	sessions := session.NewMemoryStore()
	svc := NewPublishService(api, sessions, nil)

	sub, err := svc.CreateSubmission(context.Background(), "app-1", "android", models.CreateSubmissionRequest{})
	require.NoError(t, err)
	require.Equal(t, models.StepStatusInitialized, sub.Data.Status)

	sub, err = svc.SubmitStoreConfig(context.Background(), "app-1", sub.ID, models.StoreConfigPayload{
		BundleID:    "com.example.app",
		Version:     "1.0",
		VersionCode: "42",
	})
	require.NoError(t, err)
	require.Equal(t, models.StepStatusStoreConfigSubmitted, sub.Data.Status)

	// 단계 건너뛰기는 거부된다
	_, _, err = svc.TriggerBuild(context.Background(), "app-1", sub.ID)
	var sErr *SequencingError
	require.ErrorAs(t, err, &sErr)

	sub, err = svc.SubmitPushConfig(context.Background(), "app-1", sub.ID, models.PushConfigPayload{
		FCMServerKey: "server-key",
	})
	require.NoError(t, err)
	require.Equal(t, models.StepStatusPushConfigured, sub.Data.Status)

	sub, err = svc.SubmitMetadata(context.Background(), "app-1", sub.ID, models.MetadataPayload{AppName: "Demo"})
	require.NoError(t, err)
	require.Equal(t, models.StepStatusMetadataSubmitted, sub.Data.Status)

	sub, buildID, err := svc.TriggerBuild(context.Background(), "app-1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "build-1", buildID)
	assert.Equal(t, models.StepStatusBuildTriggered, sub.Data.Status)
}

func TestResolveDegradesToCache(t *testing.T) {
	// 원격 장애 시 Resolve는 오류 대신 캐시로 강등된다
	api := newFakeAPI()
	sessions := session.NewMemoryStore()
	seedSubmission(t, sessions, models.PlatformIOS, models.StepStatusPushConfigured)
	svc := NewPublishService(&failingLatestAPI{fakeSubmissionAPI: api}, sessions, nil)

	state, sub, err := svc.Resolve(context.Background(), "app-1", "ios")

	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "app-store-listing", state.CurrentStep)
	assert.True(t, state.CanProceed)
}

// failingLatestAPI Latest만 실패하는 대역
type failingLatestAPI struct {
	*fakeSubmissionAPI
}

func (f *failingLatestAPI) Latest(_ context.Context, _ string, _ models.Platform) (*models.Submission, error) {
	return nil, errors.New("remote: gateway timeout")
}

func TestBuildMonitor(t *testing.T) {
	t.Run("polls until the build leaves the triggered state", func(t *testing.T) {
		api := newFakeAPI()
		api.byID["sub-1"] = &models.Submission{
			ID:       "sub-1",
			AppID:    "app-1",
			Platform: models.PlatformIOS,
			Status:   models.SubmissionStatusStarted,
			Data:     models.SubmissionData{Status: models.StepStatusBuildTriggered, BuildID: "build-1"},
		}
		sessions := session.NewMemoryStore()
		monitor := NewBuildMonitor(api, sessions, nil, 5*time.Millisecond, 20*time.Millisecond)

		monitor.Watch("app-1", models.PlatformIOS, "sub-1")

		// 두 번째 폴링 전에 빌드 완료로 전환
		time.Sleep(8 * time.Millisecond)
		api.setStatus("sub-1", models.SubmissionStatusCompleted)

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			sess, err := sessions.Get(context.Background(), "app-1", models.PlatformIOS)
			require.NoError(t, err)
			if sess != nil && sess.Current != nil && sess.Current.Status == models.SubmissionStatusCompleted {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}

		monitor.Stop()

		sess, err := sessions.Get(context.Background(), "app-1", models.PlatformIOS)
		require.NoError(t, err)
		require.NotNil(t, sess)
		require.NotNil(t, sess.Current)
		assert.Equal(t, models.SubmissionStatusCompleted, sess.Current.Status)
	})

	t.Run("watch is idempotent", func(t *testing.T) {
		api := newFakeAPI()
		api.byID["sub-1"] = &models.Submission{
			ID:     "sub-1",
			Status: models.SubmissionStatusStarted,
			Data:   models.SubmissionData{Status: models.StepStatusBuildTriggered},
		}
		monitor := NewBuildMonitor(api, session.NewMemoryStore(), nil, time.Hour, time.Hour)

		monitor.Watch("app-1", models.PlatformIOS, "sub-1")
		monitor.Watch("app-1", models.PlatformIOS, "sub-1")

		monitor.mu.Lock()
		watching := len(monitor.watches)
		monitor.mu.Unlock()
		assert.Equal(t, 1, watching)

		monitor.Stop()
	})

	t.Run("unwatch stops the poller", func(t *testing.T) {
		api := newFakeAPI()
		api.byID["sub-1"] = &models.Submission{
			ID:     "sub-1",
			Status: models.SubmissionStatusStarted,
			Data:   models.SubmissionData{Status: models.StepStatusBuildTriggered},
		}
		monitor := NewBuildMonitor(api, session.NewMemoryStore(), nil, time.Hour, time.Hour)

		monitor.Watch("app-1", models.PlatformIOS, "sub-1")
		monitor.Unwatch("app-1", "sub-1")
		monitor.Stop() // 폴러가 빠져나갔다면 즉시 반환된다
	})
}
