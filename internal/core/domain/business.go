package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PlanTier identifies the subscription tier a business is on.
type PlanTier string

const (
	PlanFree         PlanTier = "FREE"
	PlanLite         PlanTier = "LITE"
	PlanEntrepreneur PlanTier = "ENTREPRENEUR"
	PlanUnlimited    PlanTier = "UNLIMITED"
)

// CollaboratorRole defines the possible roles an identity can have within a business.
type CollaboratorRole string

const (
	RoleOwner      CollaboratorRole = "OWNER"
	RoleManager    CollaboratorRole = "MANAGER"
	RoleSales      CollaboratorRole = "SALES"
	RoleAuditor    CollaboratorRole = "AUDITOR"
	RoleSupervisor CollaboratorRole = "SUPERVISOR"
)

// CollaboratorStatus tracks whether a collaborator has accepted their invite.
type CollaboratorStatus string

const (
	CollaboratorActive  CollaboratorStatus = "ACTIVE"
	CollaboratorPending CollaboratorStatus = "PENDING"
)

// Permissions are the per-collaborator capability flags.
type Permissions struct {
	CanRecordSales bool `json:"canRecordSales"`
	CanAddProducts bool `json:"canAddProducts"`
	CanAddExpenses bool `json:"canAddExpenses"`
	CanViewReports bool `json:"canViewReports"`
}

// FullPermissions returns the permission set granted to owners.
func FullPermissions() Permissions {
	return Permissions{
		CanRecordSales: true,
		CanAddProducts: true,
		CanAddExpenses: true,
		CanViewReports: true,
	}
}

// Collaborator represents an identity attached to a Business with a role and permission set.
type Collaborator struct {
	UserID      string             `json:"userID"`
	Role        CollaboratorRole   `json:"role"`
	Status      CollaboratorStatus `json:"status"`
	Permissions Permissions        `json:"permissions"`
	JoinedAt    time.Time          `json:"joinedAt"`
}

// TaxSettings holds the business's tax registration details used by the
// (external) tax-estimate calculator.
type TaxSettings struct {
	Registered bool            `json:"registered"`
	TaxID      string          `json:"taxID,omitempty"`
	Rate       decimal.Decimal `json:"rate"`
}

// Business is the tenant unit owning all products, sales and expenses plus a
// collaborator list. BusinessID is assigned by the originating device and is
// the external-facing identifier everywhere; any storage-internal row id never
// leaves the repository layer.
type Business struct {
	BusinessID      string         `json:"businessID"`
	Name            string         `json:"name"`
	CurrencyCode    string         `json:"currencyCode"`
	Plan            PlanTier       `json:"plan"`
	OwnerID         string         `json:"ownerID"`
	Collaborators   []Collaborator `json:"collaborators"`
	InviteCode      *string        `json:"inviteCode,omitempty"`
	InviteExpiresAt *time.Time     `json:"inviteExpiresAt,omitempty"`
	TaxSettings     TaxSettings    `json:"taxSettings"`
	AuditFields
}

// NewOwnerCollaborator builds the single OWNER collaborator a business is seeded with.
func NewOwnerCollaborator(userID string, now time.Time) Collaborator {
	return Collaborator{
		UserID:      userID,
		Role:        RoleOwner,
		Status:      CollaboratorActive,
		Permissions: FullPermissions(),
		JoinedAt:    now,
	}
}

// IsMember reports whether userID is the owner or appears in the collaborator list.
func (b *Business) IsMember(userID string) bool {
	if b.OwnerID == userID {
		return true
	}
	for _, c := range b.Collaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// FindCollaborator returns the collaborator entry for userID, if any.
func (b *Business) FindCollaborator(userID string) (*Collaborator, bool) {
	for i := range b.Collaborators {
		if b.Collaborators[i].UserID == userID {
			return &b.Collaborators[i], true
		}
	}
	return nil, false
}

// ManagerCount counts non-owner collaborators, the quantity bounded by the plan.
func (b *Business) ManagerCount() int {
	count := 0
	for _, c := range b.Collaborators {
		if c.Role != RoleOwner {
			count++
		}
	}
	return count
}

// ValidateOwnership enforces the business ownership invariant: exactly one
// collaborator holds the OWNER role, its identity equals OwnerID, and
// collaborator identities are unique within the business.
func (b *Business) ValidateOwnership() error {
	owners := 0
	seen := make(map[string]struct{}, len(b.Collaborators))
	for _, c := range b.Collaborators {
		if _, dup := seen[c.UserID]; dup {
			return fmt.Errorf("duplicate collaborator %s in business %s", c.UserID, b.BusinessID)
		}
		seen[c.UserID] = struct{}{}
		if c.Role == RoleOwner {
			owners++
			if c.UserID != b.OwnerID {
				return fmt.Errorf("owner collaborator %s does not match business owner %s", c.UserID, b.OwnerID)
			}
		}
	}
	if owners != 1 {
		return fmt.Errorf("business %s has %d owner collaborators, want exactly 1", b.BusinessID, owners)
	}
	return nil
}
