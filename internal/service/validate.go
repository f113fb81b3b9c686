package service

import "regexp"

// 제출 전에 모양만 검사하는 패턴들. 실제 자격증명 검증은 원격 시스템의 몫이다.
var (
	versionPattern  = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)
	teamIDPattern   = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	apiKeyIDPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	bundleIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(\.[A-Za-z0-9_-]+)+$`)
)

// validVersion 마케팅 버전 형식 (1.2 또는 1.2.3)
func validVersion(version string) bool {
	return versionPattern.MatchString(version)
}

// validTeamID Apple Developer 팀 ID 형식 (영숫자 10자)
func validTeamID(teamID string) bool {
	return teamIDPattern.MatchString(teamID)
}

// validAPIKeyID App Store Connect API 키 ID 형식
func validAPIKeyID(keyID string) bool {
	return apiKeyIDPattern.MatchString(keyID)
}

// validBundleID 역도메인 번들 ID 형식
func validBundleID(bundleID string) bool {
	return bundleIDPattern.MatchString(bundleID)
}
