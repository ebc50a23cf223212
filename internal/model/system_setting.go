package model

import "time"

type SettingKey string

const (
	SettingJuniorLoginEnabled SettingKey = "junior_login_enabled"
	SettingModLoginEnabled    SettingKey = "mod_login_enabled"
	SettingSeniorLoginEnabled SettingKey = "senior_login_enabled"
	SettingGiftHourlyQuota    SettingKey = "gift_hourly_quota"
	SettingGiftDefaultValue   SettingKey = "gift_default_value"
	SettingTicketPrice        SettingKey = "ticket_price"
)

// loginSettingKeys is the single place the role-to-setting mapping lives;
// every gate check goes through it.
var loginSettingKeys = map[Role]SettingKey{
	RoleParticipant: SettingJuniorLoginEnabled,
	RoleModerator:   SettingModLoginEnabled,
	RoleStaff:       SettingSeniorLoginEnabled,
	RoleAdmin:       SettingSeniorLoginEnabled,
}

func LoginSettingKey(role Role) SettingKey {
	if key, ok := loginSettingKeys[role]; ok {
		return key
	}
	return SettingJuniorLoginEnabled
}

func (k SettingKey) Valid() bool {
	switch k {
	case SettingJuniorLoginEnabled, SettingModLoginEnabled, SettingSeniorLoginEnabled,
		SettingGiftHourlyQuota, SettingGiftDefaultValue, SettingTicketPrice:
		return true
	}
	return false
}

type SystemSetting struct {
	Key         SettingKey `db:"setting_key" json:"setting_key"`
	Value       string     `db:"setting_value" json:"setting_value"`
	Description string     `db:"description" json:"description,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
