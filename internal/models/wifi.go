package models

// WifiNetwork is a network shared with members on the portal.
type WifiNetwork struct {
	ID       string `db:"id" json:"id"`
	SSID     string `db:"ssid" json:"ssid"`
	Password string `db:"password" json:"password"`
}
