package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// CreateBusinessRequest carries the fields needed to create a business. The
// device may supply its own BusinessID so the id survives a later claim.
type CreateBusinessRequest struct {
	BusinessID   string          `json:"businessID" binding:"omitempty,uuid4"`
	Name         string          `json:"name" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3"`
	Plan         domain.PlanTier `json:"plan" binding:"omitempty,plantier"`
	TaxSettings  TaxSettingsDTO  `json:"taxSettings"`
}

// UpdateBusinessRequest carries the mutable business fields.
type UpdateBusinessRequest struct {
	Name         *string          `json:"name,omitempty"`
	CurrencyCode *string          `json:"currencyCode,omitempty" binding:"omitempty,len=3"`
	Plan         *domain.PlanTier `json:"plan,omitempty" binding:"omitempty,plantier"`
	TaxSettings  *TaxSettingsDTO  `json:"taxSettings,omitempty"`
}

// RedeemInviteRequest carries an invite code to join a business as manager.
type RedeemInviteRequest struct {
	InviteCode string `json:"inviteCode" binding:"required"`
}

// TaxSettingsDTO mirrors domain.TaxSettings on the wire.
type TaxSettingsDTO struct {
	Registered bool            `json:"registered"`
	TaxID      string          `json:"taxID,omitempty"`
	Rate       decimal.Decimal `json:"rate"`
}

// CollaboratorResponse is the wire form of a collaborator entry.
type CollaboratorResponse struct {
	UserID      string                    `json:"userID"`
	Role        domain.CollaboratorRole   `json:"role"`
	Status      domain.CollaboratorStatus `json:"status"`
	Permissions domain.Permissions        `json:"permissions"`
	JoinedAt    time.Time                 `json:"joinedAt"`
}

// BusinessResponse is the wire form of a business.
type BusinessResponse struct {
	BusinessID      string                 `json:"businessID"`
	Name            string                 `json:"name"`
	CurrencyCode    string                 `json:"currencyCode"`
	Plan            domain.PlanTier        `json:"plan"`
	OwnerID         string                 `json:"ownerID"`
	Collaborators   []CollaboratorResponse `json:"collaborators"`
	InviteCode      *string                `json:"inviteCode,omitempty"`
	InviteExpiresAt *time.Time             `json:"inviteExpiresAt,omitempty"`
	TaxSettings     TaxSettingsDTO         `json:"taxSettings"`
	CreatedAt       time.Time              `json:"createdAt"`
	LastUpdatedAt   time.Time              `json:"lastUpdatedAt"`
}

// ListBusinessesResponse wraps the business list endpoint payload.
type ListBusinessesResponse struct {
	Businesses []BusinessResponse `json:"businesses"`
}

// InviteResponse is returned when an owner mints a collaborator invite.
type InviteResponse struct {
	InviteCode string    `json:"inviteCode"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ToBusinessResponse maps a domain business to its wire form.
func ToBusinessResponse(b *domain.Business) BusinessResponse {
	collabs := make([]CollaboratorResponse, 0, len(b.Collaborators))
	for _, c := range b.Collaborators {
		collabs = append(collabs, CollaboratorResponse{
			UserID:      c.UserID,
			Role:        c.Role,
			Status:      c.Status,
			Permissions: c.Permissions,
			JoinedAt:    c.JoinedAt,
		})
	}
	return BusinessResponse{
		BusinessID:      b.BusinessID,
		Name:            b.Name,
		CurrencyCode:    b.CurrencyCode,
		Plan:            b.Plan,
		OwnerID:         b.OwnerID,
		Collaborators:   collabs,
		InviteCode:      b.InviteCode,
		InviteExpiresAt: b.InviteExpiresAt,
		TaxSettings: TaxSettingsDTO{
			Registered: b.TaxSettings.Registered,
			TaxID:      b.TaxSettings.TaxID,
			Rate:       b.TaxSettings.Rate,
		},
		CreatedAt:     b.CreatedAt,
		LastUpdatedAt: b.LastUpdatedAt,
	}
}

// ToBusinessResponses maps a slice of domain businesses.
func ToBusinessResponses(businesses []domain.Business) []BusinessResponse {
	out := make([]BusinessResponse, 0, len(businesses))
	for i := range businesses {
		out = append(out, ToBusinessResponse(&businesses[i]))
	}
	return out
}

// ToDomainTaxSettings maps the wire tax settings back into the domain shape.
func (t TaxSettingsDTO) ToDomainTaxSettings() domain.TaxSettings {
	return domain.TaxSettings{
		Registered: t.Registered,
		TaxID:      t.TaxID,
		Rate:       t.Rate,
	}
}
