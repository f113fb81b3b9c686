package workflow

import (
	"reflect"
	"testing"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
	"github.com/Fliplet/fliplet-widget-publishing/internal/platform"
)

func TestProjectProgress_CompletedStepsPrefix(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		step     models.StepStatus
		want     []string
	}{
		{"ios initialized", "ios", models.StepStatusInitialized, []string{}},
		{"ios store config", "ios", models.StepStatusStoreConfigSubmitted,
			[]string{platform.StepAPIKey, platform.StepBundleCert}},
		{"ios push configured", "ios", models.StepStatusPushConfigured,
			[]string{platform.StepAPIKey, platform.StepBundleCert, platform.StepPushConfig}},
		{"ios metadata submitted", "ios", models.StepStatusMetadataSubmitted,
			[]string{platform.StepAPIKey, platform.StepBundleCert, platform.StepPushConfig, platform.StepAppStoreListing}},
		{"ios build triggered", "ios", models.StepStatusBuildTriggered,
			[]string{platform.StepAPIKey, platform.StepBundleCert, platform.StepPushConfig, platform.StepAppStoreListing, platform.StepBuild}},
		{"android store config", "android", models.StepStatusStoreConfigSubmitted,
			[]string{platform.StepBundleKeystore}},
		{"android metadata submitted", "android", models.StepStatusMetadataSubmitted,
			[]string{platform.StepBundleKeystore, platform.StepPushConfig, platform.StepAppStoreListing}},
		{"unknown status maps to nothing", "ios", models.StepStatus("BOGUS"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strat, err := platform.FromString(tt.platform)
			if err != nil {
				t.Fatalf("FromString(%q): %v", tt.platform, err)
			}

			progress := ProjectProgress(startedSubmission(strat.Platform(), tt.step), strat)
			if !reflect.DeepEqual(progress.CompletedSteps, tt.want) {
				t.Errorf("completedSteps = %v, want %v", progress.CompletedSteps, tt.want)
			}
		})
	}
}

func TestProjectProgress_MetadataSubmittedExcludesBuild(t *testing.T) {
	progress := ProjectProgress(
		startedSubmission(models.PlatformIOS, models.StepStatusMetadataSubmitted),
		platform.IOS(),
	)

	for _, step := range progress.CompletedSteps {
		if step == platform.StepBuild {
			t.Error("completedSteps must not include build before the build is triggered")
		}
	}
}

func TestProjectProgress_StatusText(t *testing.T) {
	tests := []struct {
		name      string
		sub       *models.Submission
		wantClass string
		wantText  string
	}{
		{
			name:      "absent submission",
			sub:       nil,
			wantClass: StatusClassReady,
			wantText:  "Ready to start",
		},
		{
			name: "completed",
			sub: &models.Submission{
				Status: models.SubmissionStatusCompleted,
				Data:   models.SubmissionData{Status: models.StepStatusBuildTriggered},
			},
			wantClass: StatusClassPublished,
			wantText:  "Published",
		},
		{
			name:      "failed",
			sub:       &models.Submission{Status: models.SubmissionStatusFailed},
			wantClass: StatusClassFailed,
			wantText:  "Failed",
		},
		{
			name:      "cancelled",
			sub:       &models.Submission{Status: models.SubmissionStatusCancelled},
			wantClass: StatusClassReady,
			wantText:  "Ready to start",
		},
		{
			name: "started at push config",
			sub: &models.Submission{
				Status: models.SubmissionStatusStarted,
				Data:   models.SubmissionData{Status: models.StepStatusStoreConfigSubmitted},
			},
			wantClass: StatusClassInProgress,
			wantText:  "In progress (Push notifications)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := ProjectProgress(tt.sub, platform.IOS())
			if progress.StatusClass != tt.wantClass {
				t.Errorf("statusClass = %q, want %q", progress.StatusClass, tt.wantClass)
			}
			if progress.StatusText != tt.wantText {
				t.Errorf("statusText = %q, want %q", progress.StatusText, tt.wantText)
			}
		})
	}
}

func TestProjectProgress_PartialDataDoesNotPanic(t *testing.T) {
	// 필드가 대부분 빈 레코드도 표시 가능해야 함
	progress := ProjectProgress(&models.Submission{}, platform.Android())
	if progress.StatusClass != StatusClassReady {
		t.Errorf("statusClass = %q, want %q", progress.StatusClass, StatusClassReady)
	}
	if progress.CompletedSteps == nil {
		t.Error("completedSteps must not be nil")
	}
}
