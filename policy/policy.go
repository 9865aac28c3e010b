// Package policy is the single access-control decision point: a fixed
// role/permission table plus country scoping and ownership checks.
// Decisions are pure; Authorize additionally logs and counts denials.
package policy

import (
	"fmt"
	"log/slog"

	"food-ordering-api/apperror"
	"food-ordering-api/metrics"
	"food-ordering-api/models"
)

// Action represents an operation gated by the permission table
type Action string

const (
	ActionViewRestaurant    Action = "view_restaurant"
	ActionCreateOrder       Action = "create_order"
	ActionPlaceOrder        Action = "place_order"
	ActionCancelOrder       Action = "cancel_order"
	ActionUpdatePayment     Action = "update_payment"
	ActionManageUsers       Action = "manage_users"
	ActionManageRestaurants Action = "manage_restaurants"
	ActionManageMenu        Action = "manage_menu"
	ActionViewAllOrders     Action = "view_all_orders"
)

// permissions maps actions to the roles allowed to perform them.
// It is fixed at compile time.
var permissions = map[Action][]models.Role{
	ActionViewRestaurant:    {models.RoleAdmin, models.RoleManager, models.RoleMember},
	ActionCreateOrder:       {models.RoleAdmin, models.RoleManager, models.RoleMember},
	ActionPlaceOrder:        {models.RoleAdmin, models.RoleManager},
	ActionCancelOrder:       {models.RoleAdmin, models.RoleManager},
	ActionUpdatePayment:     {models.RoleAdmin},
	ActionManageUsers:       {models.RoleAdmin},
	ActionManageRestaurants: {models.RoleAdmin},
	ActionManageMenu:        {models.RoleAdmin},
	ActionViewAllOrders:     {models.RoleAdmin, models.RoleManager},
}

// Target carries the optional resource attributes an action is checked against.
type Target struct {
	Country models.Country
	OwnerID string
}

type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// HasPermission checks the role table only
func HasPermission(role models.Role, action Action) bool {
	for _, r := range permissions[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Bypasses reports whether p is exempt from country scoping.
func Bypasses(p *models.Principal) bool {
	return p.Role == models.RoleAdmin || p.EffectiveCountry() == models.CountryGlobal
}

// CanAccessCountry applies country scoping to a resource country.
func CanAccessCountry(p *models.Principal, country models.Country) bool {
	return Bypasses(p) || p.Country == country
}

// CountryFilter returns the country list queries must be restricted to;
// ok is false when p sees every country.
func CountryFilter(p *models.Principal) (country models.Country, ok bool) {
	if Bypasses(p) {
		return "", false
	}
	return p.Country, true
}

// CanManageInCountry scopes restaurant writes by the actor's own effective
// country. Unlike CanAccessCountry the ADMIN role alone does not bypass it.
func CanManageInCountry(p *models.Principal, country models.Country) bool {
	ec := p.EffectiveCountry()
	return ec == models.CountryGlobal || ec == country
}

// Decide evaluates action for p without side effects: role first, then
// country, then ownership.
func Decide(p *models.Principal, action Action, target Target) error {
	if p == nil {
		return apperror.Unauthenticated("authentication required")
	}
	if !HasPermission(p.Role, action) {
		return apperror.Forbidden(apperror.ReasonRole,
			fmt.Sprintf("role %s cannot perform %s", p.Role, action))
	}
	if target.Country != "" && !CanAccessCountry(p, target.Country) {
		return apperror.Forbidden(apperror.ReasonCountry,
			fmt.Sprintf("user with country %s cannot access resources of country %s", p.Country, target.Country))
	}
	if target.OwnerID != "" && target.OwnerID != p.ID {
		return apperror.Forbidden(apperror.ReasonOwnership, "resource belongs to another user")
	}
	return nil
}

// CanPerform is the boolean form of Decide.
func (e *Engine) CanPerform(p *models.Principal, action Action, target Target) bool {
	return Decide(p, action, target) == nil
}

// Authorize is Decide plus denial logging and metrics.
func (e *Engine) Authorize(p *models.Principal, action Action, target Target) error {
	err := Decide(p, action, target)
	if err != nil {
		e.deny(p, action, err)
	}
	return err
}

// ResolveCountry applies the write-request country rule: an absent country is
// replaced with the principal's own, a conflicting one is denied unless p
// bypasses scoping.
func (e *Engine) ResolveCountry(p *models.Principal, action Action, requested models.Country) (models.Country, error) {
	if requested == "" {
		return p.EffectiveCountry(), nil
	}
	if !requested.Valid() {
		return "", apperror.Validation(fmt.Sprintf("invalid country %q", requested))
	}
	if !CanAccessCountry(p, requested) {
		err := apperror.Forbidden(apperror.ReasonCountry,
			fmt.Sprintf("user with country %s cannot access resources of country %s", p.Country, requested))
		e.deny(p, action, err)
		return "", err
	}
	return requested, nil
}

func (e *Engine) deny(p *models.Principal, action Action, err error) {
	reason := apperror.ReasonOf(err)
	if reason == "" {
		reason = "unauthenticated"
	}
	metrics.ObservePolicyDenial(string(action), reason)

	attrs := []any{
		slog.String("action", string(action)),
		slog.String("reason", reason),
	}
	if p != nil {
		attrs = append(attrs,
			slog.String("principal_id", p.ID),
			slog.String("role", string(p.Role)),
			slog.String("country", string(p.Country)),
		)
	}
	e.logger.Warn("permission denied", attrs...)
}
