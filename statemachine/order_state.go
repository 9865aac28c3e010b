package statemachine

import (
	"fmt"
	"strings"

	"food-ordering-api/apperror"
	"food-ordering-api/models"
)

// ActorOwner is the only actor allowed to move an order through its lifecycle.
// Payment-method overrides by ADMIN do not change status and are not transitions.
const ActorOwner = "owner"

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor string             `json:"actor"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Owner completes payment
	{From: models.StatusCreated, To: models.StatusPaid, Actor: ActorOwner},
	// Owner cancels an unpaid order
	{From: models.StatusCreated, To: models.StatusCancelled, Actor: ActorOwner},
	// Repeating a cancel is a no-op, not an error
	{From: models.StatusCancelled, To: models.StatusCancelled, Actor: ActorOwner},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && t.To != status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// SourcesFor returns every state from which actor may move an order to `to`.
// The order repository uses it as the expected-state set of its conditional write.
func SourcesFor(to models.OrderStatus, actor string) []models.OrderStatus {
	var froms []models.OrderStatus
	for _, t := range validTransitions {
		if t.To == to && t.Actor == actor {
			froms = append(froms, t.From)
		}
	}
	return froms
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor string) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return apperror.InvalidTransition(fmt.Sprintf(
		"%s → %s is not allowed for %s (valid transitions from %s: %s)",
		from, to, actor, from, describeValidFrom(from),
	))
}

// IsTerminal reports whether no other state is reachable from status.
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
