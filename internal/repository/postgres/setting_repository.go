package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

type settingRepository struct {
	pool *pgxpool.Pool
}

func NewSettingRepository(pool *pgxpool.Pool) repository.SettingRepository {
	return &settingRepository{pool: pool}
}

var _ repository.SettingRepository = (*settingRepository)(nil)

func (r *settingRepository) GetAll(ctx context.Context) ([]*model.SystemSetting, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT setting_key, setting_value, description, updated_at
		   FROM system_settings
		  ORDER BY setting_key ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]*model.SystemSetting, 0, 8)
	for rows.Next() {
		setting := &model.SystemSetting{}
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.Description, &setting.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return settings, nil
}

func (r *settingRepository) Upsert(ctx context.Context, key model.SettingKey, value, description string) (*model.SystemSetting, error) {
	setting := &model.SystemSetting{
		Key:         key,
		Value:       value,
		Description: description,
	}

	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO system_settings (setting_key, setting_value, description, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (setting_key)
		 DO UPDATE SET setting_value = EXCLUDED.setting_value,
		               updated_at = NOW()
		 RETURNING description, updated_at`,
		key,
		value,
		description,
	).Scan(&setting.Description, &setting.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return setting, nil
}
