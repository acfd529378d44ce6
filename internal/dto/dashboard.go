package dto

import (
	"time"

	"github.com/unishare/unishare-api/internal/models"
)

// AdminDashboardResponse aggregates platform-wide totals.
type AdminDashboardResponse struct {
	TotalUsers        int                `json:"total_users"`
	TotalDocuments    int                `json:"total_documents"`
	PendingDocuments  int                `json:"pending_documents"`
	PendingElevations int                `json:"pending_elevations"`
	TotalUniversities int                `json:"total_universities"`
	UsersByRole       map[string]int     `json:"users_by_role"`
	RecentDocuments   []models.Document  `json:"recent_documents"`
	Leaderboard       []LeaderboardEntry `json:"leaderboard"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// DirectorDashboardResponse is scoped to the director's university.
type DirectorDashboardResponse struct {
	UniversityID     string            `json:"university_id"`
	PendingDocuments []models.Document `json:"pending_documents"`
	PendingRequests  int               `json:"pending_requests"`
	TotalDocuments   int               `json:"total_documents"`
	TotalCourses     int               `json:"total_courses"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// ProfessorDashboardResponse lists the professor's review queue.
type ProfessorDashboardResponse struct {
	PendingReviews []models.Document `json:"pending_reviews"`
	GradesIssued   int               `json:"grades_issued"`
	OwnDocuments   int               `json:"own_documents"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// StudentDashboardResponse covers students and ordinary users alike.
type StudentDashboardResponse struct {
	DocumentsByStatus map[string]int `json:"documents_by_status"`
	Points            int            `json:"points"`
	Level             int            `json:"level"`
	Badges            []string       `json:"badges"`
	Grades            []models.Grade `json:"grades"`
	Followers         int            `json:"followers"`
	Following         int            `json:"following"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// LeaderboardEntry ranks users by points.
type LeaderboardEntry struct {
	UserID   string `db:"user_id" json:"user_id"`
	FullName string `db:"full_name" json:"full_name"`
	Points   int    `db:"points" json:"points"`
	Level    int    `json:"level"`
}
