package models

import "time"

// App 제출 대상 애플리케이션 레코드. organizationId의 출처가 된다.
type App struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organizationId"`
	Region         string    `json:"region,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
