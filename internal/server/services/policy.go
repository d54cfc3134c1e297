package services

import "github.com/loginlink/loginlink/internal/server/models"

// Policy decides whether the requesting principal may mint tokens for a
// target user.
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// CanIssue evaluates the rules in order: account-management capability
// allows any target; an authenticated principal may always issue for
// themselves; everything else is denied. A nil actor means no identity was
// established and is always denied.
func (p *Policy) CanIssue(actor *models.Actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	if actor.ManageUsers {
		return true
	}
	return actor.UserID == target.ID
}
