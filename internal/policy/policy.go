// Package policy decides what a caller may do with a publication. Every
// function is pure: the decision depends only on the identity and the
// publication passed in.
package policy

import (
	"pubhub/internal/models"
)

// Operation is a mutation guarded by the transition table.
type Operation string

const (
	OpEditContent  Operation = "edit_content"
	OpChangeStatus Operation = "change_status"
	OpDestroy      Operation = "destroy"
)

// Capacity is the relationship between a caller and a publication.
type Capacity string

const (
	CapacityOwner  Capacity = "owner"
	CapacityEditor Capacity = "editor"
	CapacityReader Capacity = "reader"
)

// Denial classifies why a decision was negative.
type Denial int

const (
	DenialNone Denial = iota
	DenialPermission
	DenialInvalidState
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  string
	Denial  Denial
}

// Err converts a negative decision into the matching application error.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Denial == DenialInvalidState:
		return models.NewInvalidStateError(d.Reason)
	default:
		return models.NewPermissionDeniedError(d.Reason)
	}
}

const (
	ReasonOnlyEditors    = "Only editors can change publication status."
	ReasonRejectedFrozen = "rejected publications cannot be changed"
	ReasonNotPermitted   = "You do not have permission to perform this action."
	ReasonNotReadable    = "You do not have permission to view this publication."
	reasonEditorRead     = "editors can read every publication"
	reasonAuthorRead     = "authors can read their own publications"
	reasonApprovedRead   = "approved publications are public"
	reasonGrantedTo      = "granted to "
)

func allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(denial Denial, reason string) Decision {
	return Decision{Reason: reason, Denial: denial}
}

type readRule struct {
	reason  string
	matches func(caller models.Identity, p *models.Publication) bool
}

// readRules are evaluated in order; the first match allows the read.
var readRules = []readRule{
	{reasonEditorRead, func(caller models.Identity, _ *models.Publication) bool {
		return caller.IsEditor()
	}},
	{reasonAuthorRead, func(caller models.Identity, p *models.Publication) bool {
		return !caller.Anonymous() && p.AuthorID == caller.UserID
	}},
	{reasonApprovedRead, func(_ models.Identity, p *models.Publication) bool {
		return p.Status == models.StatusApproved
	}},
}

// CanRead reports whether caller may see p.
func CanRead(caller models.Identity, p *models.Publication) Decision {
	for _, rule := range readRules {
		if rule.matches(caller, p) {
			return allow(rule.reason)
		}
	}
	return deny(DenialPermission, ReasonNotReadable)
}

type grants map[Capacity][]Operation

// transitions maps each status and capacity to the operations it permits.
var transitions = map[models.PublicationStatus]grants{
	models.StatusPending: {
		CapacityOwner:  {OpEditContent, OpDestroy},
		CapacityEditor: {OpChangeStatus, OpDestroy},
	},
	models.StatusApproved: {
		CapacityOwner:  {OpEditContent, OpDestroy},
		CapacityEditor: {OpChangeStatus, OpDestroy},
	},
	models.StatusRejected: {
		CapacityEditor: {OpChangeStatus, OpDestroy},
	},
}

// Capacities lists every capacity caller holds toward p. A caller can be
// both owner and editor; everyone is at least a reader.
func Capacities(caller models.Identity, p *models.Publication) []Capacity {
	var out []Capacity
	if !caller.Anonymous() && p.AuthorID == caller.UserID {
		out = append(out, CapacityOwner)
	}
	if caller.IsEditor() {
		out = append(out, CapacityEditor)
	}
	return append(out, CapacityReader)
}

// Allows reports whether the table grants op to capacity in status.
func Allows(status models.PublicationStatus, capacity Capacity, op Operation) bool {
	for _, granted := range transitions[status][capacity] {
		if granted == op {
			return true
		}
	}
	return false
}

// Authorize checks op against the transition table for every capacity the
// caller holds.
func Authorize(caller models.Identity, p *models.Publication, op Operation) Decision {
	capacities := Capacities(caller, p)
	for _, capacity := range capacities {
		if Allows(p.Status, capacity, op) {
			return allow(reasonGrantedTo + string(capacity))
		}
	}

	if op == OpChangeStatus {
		return deny(DenialPermission, ReasonOnlyEditors)
	}
	if capacities[0] == CapacityOwner && p.Status == models.StatusRejected {
		return deny(DenialInvalidState, ReasonRejectedFrozen)
	}
	return deny(DenialPermission, ReasonNotPermitted)
}
