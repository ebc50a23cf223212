package model

import (
	"time"

	"github.com/google/uuid"
)

type TargetRole string

const (
	TargetJunior TargetRole = "junior"
	TargetSenior TargetRole = "senior"
	TargetAll    TargetRole = "all"
)

func (t TargetRole) Valid() bool {
	switch t {
	case TargetJunior, TargetSenior, TargetAll:
		return true
	}
	return false
}

// Matches reports whether a principal in the given bucket may redeem a code
// with this target role.
func (t TargetRole) Matches(bucket RoleBucket) bool {
	if t == TargetAll {
		return true
	}
	return string(t) == string(bucket)
}

// Code is a redeemable promotion code. Codes are immutable once created and
// are never deleted; redemptions reference them as historical records.
type Code struct {
	ID              int64      `db:"id" json:"id"`
	CodeString      string     `db:"code_string" json:"code_string"`
	TargetRole      TargetRole `db:"target_role" json:"target_role"`
	ActivityName    string     `db:"activity_name" json:"activity_name"`
	RewardCoin      int64      `db:"reward_coin" json:"reward_coin"`
	CreatedByUserID uuid.UUID  `db:"created_by_user_id" json:"created_by_user_id"`
	ExpiresAt       time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

type CodeWithCreator struct {
	Code
	CreatorFirstname string `db:"creator_firstname" json:"creator_firstname"`
	CreatorLastname  string `db:"creator_lastname" json:"creator_lastname"`
}

// CodeRedemption records that a user redeemed a code. The (user_id, code_id)
// pair is unique at the database level; that constraint is what makes
// concurrent double-redemption impossible.
type CodeRedemption struct {
	ID         int64     `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	CodeID     int64     `db:"code_id" json:"code_id"`
	RedeemedAt time.Time `db:"redeemed_at" json:"redeemed_at"`
}
