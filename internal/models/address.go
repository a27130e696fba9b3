package models

import "time"

type AddressType string

const (
	AddressTypeHome   AddressType = "home"
	AddressTypeOffice AddressType = "office"
	AddressTypeOther  AddressType = "other"
)

type Address struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user"`
	Type      AddressType `json:"type"`
	Name      string      `json:"name"`
	PhoneNo   string      `json:"phone_no"`
	Pincode   int         `json:"pincode"`
	City      string      `json:"city"`
	State     string      `json:"state"`
	Street    string      `json:"street"`
	FlatNo    string      `json:"flat_no"`
	Landmark  string      `json:"landmark,omitempty"`
	IsDefault bool        `json:"is_default"`
	CreatedAt time.Time   `json:"created_on"`
}

type CreateAddressRequest struct {
	Type      AddressType `json:"type"`
	Name      string      `json:"name"`
	PhoneNo   string      `json:"phone_no"`
	Pincode   int         `json:"pincode"`
	City      string      `json:"city"`
	State     string      `json:"state"`
	Street    string      `json:"street"`
	FlatNo    string      `json:"flat_no"`
	Landmark  string      `json:"landmark"`
	IsDefault bool        `json:"is_default"`
}
