package model

import "testing"

func TestTargetRoleMatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		target TargetRole
		bucket RoleBucket
		want   bool
	}{
		{TargetAll, BucketJunior, true},
		{TargetAll, BucketSenior, true},
		{TargetAll, BucketModerator, true},
		{TargetJunior, BucketJunior, true},
		{TargetJunior, BucketSenior, false},
		{TargetJunior, BucketModerator, false},
		{TargetSenior, BucketSenior, true},
		{TargetSenior, BucketJunior, false},
		{TargetSenior, BucketModerator, false},
	}
	for _, tc := range cases {
		if got := tc.target.Matches(tc.bucket); got != tc.want {
			t.Errorf("Matches(%s, %s) = %v, want %v", tc.target, tc.bucket, got, tc.want)
		}
	}
}

func TestTargetRoleValid(t *testing.T) {
	t.Parallel()

	for _, target := range []TargetRole{TargetJunior, TargetSenior, TargetAll} {
		if !target.Valid() {
			t.Errorf("expected %s to be valid", target)
		}
	}
	if TargetRole("everyone").Valid() {
		t.Error("expected unknown target role to be invalid")
	}
}
