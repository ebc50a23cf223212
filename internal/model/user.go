package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleParticipant Role = "PARTICIPANT"
	RoleStaff       Role = "STAFF"
	RoleModerator   Role = "MODERATOR"
	RoleAdmin       Role = "ADMIN"
)

// RoleBucket is the audience bucket a role belongs to when matching a code's
// target role. Moderators form their own bucket: they only match "all" codes.
type RoleBucket string

const (
	BucketJunior    RoleBucket = "junior"
	BucketSenior    RoleBucket = "senior"
	BucketModerator RoleBucket = "moderator"
)

var roleBuckets = map[Role]RoleBucket{
	RoleParticipant: BucketJunior,
	RoleStaff:       BucketSenior,
	RoleModerator:   BucketModerator,
	RoleAdmin:       BucketSenior,
}

func (r Role) Bucket() RoleBucket {
	if bucket, ok := roleBuckets[r]; ok {
		return bucket
	}
	return BucketJunior
}

func (r Role) Valid() bool {
	switch r {
	case RoleParticipant, RoleStaff, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	StudentID       *string    `db:"student_id" json:"student_id,omitempty"`
	Username        string     `db:"username" json:"username"`
	Nickname        string     `db:"nickname" json:"nickname"`
	Firstname       string     `db:"firstname" json:"firstname"`
	Lastname        string     `db:"lastname" json:"lastname"`
	PasswordHash    *string    `db:"password_hash" json:"-"`
	Role            Role       `db:"role" json:"role"`
	School          *string    `db:"school" json:"school,omitempty"`
	EducationLevel  *string    `db:"education_level" json:"education_level,omitempty"`
	TermsAcceptedAt *time.Time `db:"terms_accepted_at" json:"terms_accepted_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Principal is the verified identity attached to a request. Token issuance
// lives in the identity provider; only the claims reach this service.
type Principal struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
}

type OnboardingAnswer struct {
	QuestionID int    `db:"question_id" json:"question_id"`
	Answer     string `db:"answer" json:"answer"`
}

type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	Nickname       string    `json:"nickname"`
	CumulativeCoin int64     `json:"cumulative_coin"`
}
