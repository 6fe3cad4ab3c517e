package models

type Device struct {
	AccountID   string
	DeviceID    string
	Description string
	IsActive    bool
}
