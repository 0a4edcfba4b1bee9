package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

// WifiRepository persists shared WiFi networks.
type WifiRepository struct {
	db *sqlx.DB
}

// NewWifiRepository creates the repository.
func NewWifiRepository(db *sqlx.DB) *WifiRepository {
	return &WifiRepository{db: db}
}

// List returns every network ordered by SSID.
func (r *WifiRepository) List(ctx context.Context) ([]models.WifiNetwork, error) {
	var out []models.WifiNetwork
	if err := r.db.SelectContext(ctx, &out, "SELECT id, ssid, password FROM wifi_networks ORDER BY ssid ASC"); err != nil {
		return nil, fmt.Errorf("list wifi networks: %w", err)
	}
	return out, nil
}

// Create inserts a network.
func (r *WifiRepository) Create(ctx context.Context, network *models.WifiNetwork) error {
	return insertWifi(ctx, r.db, network)
}

func insertWifi(ctx context.Context, exec sqlx.ExtContext, network *models.WifiNetwork) error {
	if _, err := sqlx.NamedExecContext(ctx, exec, "INSERT INTO wifi_networks (id, ssid, password) VALUES (:id, :ssid, :password)", network); err != nil {
		return fmt.Errorf("insert wifi network: %w", err)
	}
	return nil
}

// Delete removes a network.
func (r *WifiRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM wifi_networks WHERE id = ?"), id); err != nil {
		return fmt.Errorf("delete wifi network: %w", err)
	}
	return nil
}
