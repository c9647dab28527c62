package models

import "time"

// Client is a customer organization managed by the tenant (the MSP's
// client book). Contracts reference clients by id.
type Client struct {
	Id          uint      `json:"id" gorm:"primaryKey"`
	CompanyName string    `json:"company_name" gorm:"not null;unique"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Zip         string    `json:"zip"`
	Email       string    `json:"email" gorm:"unique;not null"`
	FirstName   string    `json:"first_name" gorm:"not null"`
	LastName    string    `json:"last_name" gorm:"not null"`
	PhoneNumber string    `json:"phone_number"`
	Status      string    `json:"status" gorm:"size:20;default:'active'"` // active | inactive
	CreatedAt   time.Time `json:"created_at"`
}
