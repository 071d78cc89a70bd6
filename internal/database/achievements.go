package database

import (
	"database/sql"
	"fmt"
	"time"

	"abc-dashboard/internal/stats"
)

// Achievement is the manually entered count of dogs sterilized in a ULB
// before the field app was in use
type Achievement struct {
	District           string    `json:"district"`
	ULB                string    `json:"ulb"`
	AchievedWithoutApp int       `json:"achieved_without_app"`
	UpdatedAt          time.Time `json:"updated_at"`
	UpdatedBy          string    `json:"updated_by"`
}

// AchievementStore handles database operations for manual achievements
type AchievementStore struct {
	db *sql.DB
}

// NewAchievementStore creates a new achievement store
func NewAchievementStore(db *sql.DB) *AchievementStore {
	return &AchievementStore{db: db}
}

// Upsert stores the count for a ULB, replacing any earlier value
func (a *AchievementStore) Upsert(achievement *Achievement) error {
	if achievement.AchievedWithoutApp < 0 {
		return fmt.Errorf("achieved without app must not be negative")
	}
	achievement.UpdatedAt = time.Now().UTC()

	query := `INSERT INTO achievements (district, ulb, achieved_without_app, updated_at, updated_by)
			  VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT(district, ulb) DO UPDATE SET
			  achieved_without_app = excluded.achieved_without_app,
			  updated_at = excluded.updated_at,
			  updated_by = excluded.updated_by`

	_, err := a.db.Exec(query, achievement.District, achievement.ULB,
		achievement.AchievedWithoutApp, achievement.UpdatedAt, achievement.UpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to store achievement: %w", err)
	}
	return nil
}

// GetAll returns every stored achievement ordered by district and ULB
func (a *AchievementStore) GetAll() ([]Achievement, error) {
	rows, err := a.db.Query(`SELECT district, ulb, achieved_without_app, updated_at, updated_by
		FROM achievements ORDER BY district, ulb`)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var achievements []Achievement
	for rows.Next() {
		var ach Achievement
		if err := rows.Scan(&ach.District, &ach.ULB, &ach.AchievedWithoutApp, &ach.UpdatedAt, &ach.UpdatedBy); err != nil {
			return nil, err
		}
		achievements = append(achievements, ach)
	}
	return achievements, rows.Err()
}

// Counts returns achievements keyed for the aggregation engine
func (a *AchievementStore) Counts() (map[stats.ULBKey]int, error) {
	all, err := a.GetAll()
	if err != nil {
		return nil, err
	}
	counts := make(map[stats.ULBKey]int, len(all))
	for _, ach := range all {
		counts[stats.ULBKey{District: ach.District, ULB: ach.ULB}] = ach.AchievedWithoutApp
	}
	return counts, nil
}
