package models

import "time"

// Grade is a professor's private 0-20 evaluation of a student document.
type Grade struct {
	ID              string    `db:"id" json:"id"`
	DocumentID      string    `db:"document_id" json:"document_id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	ProfessorID     string    `db:"professor_id" json:"professor_id"`
	Score           int       `db:"score" json:"score"`
	PrivateFeedback string    `db:"private_feedback" json:"private_feedback"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
