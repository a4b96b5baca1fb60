package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/stocks_backend/utils"
	"gorm.io/gorm"
)

// Party is a customer, supplier or both. Invoices reference a party by id;
// parties with documents on file are deactivated rather than removed.
type Party struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Code        string    `gorm:"size:30;uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"size:200;index;not null" json:"name"`
	PartyType   PartyType `gorm:"size:20;not null" json:"party_type"`
	TaxId       *string   `gorm:"size:30" json:"tax_id"`
	Phone       *string   `gorm:"size:30" json:"phone"`
	Email       *string   `gorm:"size:100" json:"email"`
	Address     *string   `gorm:"size:500" json:"address"`
	CreditLimit int64     `gorm:"default:0" json:"credit_limit"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewParty struct {
	Code        string    `json:"code" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	PartyType   PartyType `json:"party_type" validate:"required,oneof=customer supplier both"`
	TaxId       *string   `json:"tax_id"`
	Phone       *string   `json:"phone"`
	Email       *string   `json:"email"`
	Address     *string   `json:"address"`
	CreditLimit int64     `json:"credit_limit" validate:"gte=0"`
}

func (input *NewParty) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Phone != nil && *input.Phone != "" {
		if err := utils.ValidatePhoneNumber(*input.Phone, utils.CountryCode); err != nil {
			return fmt.Errorf("invalid phone number: %w", err)
		}
	}
	if input.Email != nil && *input.Email != "" && !utils.IsValidEmail(*input.Email) {
		return errors.New("invalid email address")
	}
	return nil
}

func CreateParty(ctx context.Context, db *gorm.DB, input *NewParty) (*Party, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	party := Party{
		Code:        input.Code,
		Name:        input.Name,
		PartyType:   input.PartyType,
		TaxId:       input.TaxId,
		Phone:       input.Phone,
		Email:       input.Email,
		Address:     input.Address,
		CreditLimit: input.CreditLimit,
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&party).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func UpdateParty(ctx context.Context, db *gorm.DB, id int, input *NewParty) (*Party, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	party, err := GetParty(ctx, db, id)
	if err != nil {
		return nil, err
	}
	err = db.WithContext(ctx).Model(party).Updates(map[string]interface{}{
		"Code":        input.Code,
		"Name":        input.Name,
		"PartyType":   input.PartyType,
		"TaxId":       input.TaxId,
		"Phone":       input.Phone,
		"Email":       input.Email,
		"Address":     input.Address,
		"CreditLimit": input.CreditLimit,
	}).Error
	if err != nil {
		return nil, err
	}
	return party, nil
}

func GetParty(ctx context.Context, db *gorm.DB, id int) (*Party, error) {
	var party Party
	if err := db.WithContext(ctx).First(&party, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "party", Id: id}
		}
		return nil, err
	}
	return &party, nil
}

func ListParties(ctx context.Context, db *gorm.DB, partyType *PartyType) ([]*Party, error) {
	var parties []*Party
	query := db.WithContext(ctx).Order("id")
	if partyType != nil {
		query = query.Where("party_type IN ?", []PartyType{*partyType, PartyTypeBoth})
	}
	if err := query.Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}
