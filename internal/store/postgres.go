package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type profileRow struct {
	UserID      string `gorm:"primaryKey;size:128"`
	DisplayName string `gorm:"size:64"`
	UpdatedAt   time.Time
}

func (profileRow) TableName() string { return "profiles" }

type activeMatchRow struct {
	MatchID   string `gorm:"primaryKey;size:64"`
	Payload   []byte `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (activeMatchRow) TableName() string { return "active_matches" }

type userMatchRow struct {
	UserID    string `gorm:"primaryKey;size:128"`
	MatchID   string `gorm:"size:64"`
	UpdatedAt time.Time
}

func (userMatchRow) TableName() string { return "user_active_matches" }

// Postgres is the gorm-backed Store used when DATABASE_URL is set.
type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&profileRow{}, &activeMatchRow{}, &userMatchRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) DisplayName(ctx context.Context, userID string) (string, error) {
	var row profileRow
	err := p.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.DisplayName, nil
}

func (p *Postgres) SetDisplayName(ctx context.Context, userID, name string) error {
	row := profileRow{UserID: userID, DisplayName: name, UpdatedAt: time.Now()}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (p *Postgres) SaveActiveMatch(ctx context.Context, matchID string, info RecoveryInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}
	row := activeMatchRow{MatchID: matchID, Payload: payload, UpdatedAt: time.Now()}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (p *Postgres) GetActiveMatch(ctx context.Context, matchID string) (*RecoveryInfo, error) {
	var row activeMatchRow
	err := p.db.WithContext(ctx).First(&row, "match_id = ?", matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var info RecoveryInfo
	if err := json.Unmarshal(row.Payload, &info); err != nil {
		return nil, fmt.Errorf("decode recovery payload: %w", err)
	}
	return &info, nil
}

func (p *Postgres) ClearActiveMatch(ctx context.Context, matchID string) error {
	return p.db.WithContext(ctx).Delete(&activeMatchRow{}, "match_id = ?", matchID).Error
}

func (p *Postgres) SetUserActiveMatch(ctx context.Context, userID, matchID string) error {
	if matchID == "" {
		return p.db.WithContext(ctx).Delete(&userMatchRow{}, "user_id = ?", userID).Error
	}
	row := userMatchRow{UserID: userID, MatchID: matchID, UpdatedAt: time.Now()}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (p *Postgres) GetUserActiveMatch(ctx context.Context, userID string) (string, error) {
	var row userMatchRow
	err := p.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.MatchID, nil
}
