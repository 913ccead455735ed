// Package authz decides whether a requester may act on a team, project, task or comment.
// It is split the same way the rest of the service is:
// - Predicates: stateless role checks over already loaded records
// - ChainResolver: walks comment -> task -> project -> team through an EntityStore
// - Engine: one policy table evaluated over the resolved chain
//
// The package never writes to the store.
package authz

import (
	"context"

	"github.com/Stachugit-s/teamtaskmanager2/db"
)

// ResourceType is the kind of entity a decision is about
type ResourceType string

const (
	ResourceTeam    ResourceType = "team"
	ResourceProject ResourceType = "project"
	ResourceTask    ResourceType = "task"
	ResourceComment ResourceType = "comment"
)

// Parent returns the kind that owns r, or "" for a team.
func (r ResourceType) Parent() ResourceType {
	switch r {
	case ResourceComment:
		return ResourceTask
	case ResourceTask:
		return ResourceProject
	case ResourceProject:
		return ResourceTeam
	default:
		return ""
	}
}

// Valid reports whether r is a known kind
func (r ResourceType) Valid() bool {
	switch r {
	case ResourceTeam, ResourceProject, ResourceTask, ResourceComment:
		return true
	}
	return false
}

// Action represents an operation that can be performed on a resource
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage" // team membership changes
)

// Outcome is the terminal result of an authorization decision
type Outcome string

const (
	OutcomeAllow           Outcome = "allow"
	OutcomeDeny            Outcome = "deny"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeUnauthenticated Outcome = "unauthenticated"
)

// Requester is the authenticated identity attached to a request.
// It is passed explicitly into every service and engine call.
type Requester struct {
	ID    string
	Role  db.UserRole
	Name  string
	Email string
}

// Authenticated reports whether r carries a usable identity
func (r *Requester) Authenticated() bool {
	return r != nil && r.ID != ""
}

// Target names the entity a decision is about.
// ID addresses an existing entity. ParentID addresses the owner of an entity
// about to be created, or of a collection being read.
type Target struct {
	Kind     ResourceType
	ID       string
	ParentID string
}

// Chain is the ownership chain of a target, leaf first. Fields above the leaf
// are always set after a successful resolve; fields below it are nil.
type Chain struct {
	Comment *db.Comment
	Task    *db.Task
	Project *db.Project
	Team    *db.Team
}

// Decision is the result of Authorize
type Decision struct {
	Outcome Outcome
	Reason  string         // set on deny
	Missing *NotFoundError // set on not_found
	Chain   *Chain         // the snapshot the decision was made on
}

// Allowed reports whether the decision permits the operation
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}

// Err converts the decision into the error a service returns to its caller.
func (d Decision) Err() error {
	switch d.Outcome {
	case OutcomeAllow:
		return nil
	case OutcomeUnauthenticated:
		return ErrUnauthenticated
	case OutcomeNotFound:
		if d.Missing != nil {
			return d.Missing
		}
		return ErrNotFound
	default:
		return &DeniedError{Reason: d.Reason}
	}
}

// EntityStore is the lookup-by-id surface the resolver reads from.
// Absent records are reported as db.ErrRecordNotFound.
type EntityStore interface {
	GetTeam(ctx context.Context, id string) (*db.Team, error)
	GetProject(ctx context.Context, id string) (*db.Project, error)
	GetTask(ctx context.Context, id string) (*db.Task, error)
	GetComment(ctx context.Context, id string) (*db.Comment, error)
}

// Authorizer answers one question: "Is this allowed?"
type Authorizer interface {
	Authorize(ctx context.Context, requester *Requester, action Action, target Target) (Decision, error)

	// AuthorizeMemberRemoval applies the manage gate and then refuses to
	// remove the team leader, whatever the requester's role.
	AuthorizeMemberRemoval(ctx context.Context, requester *Requester, teamID, userID string) (Decision, error)
}

// Observer receives every decision the engine makes
type Observer interface {
	ObserveDecision(ctx context.Context, requester *Requester, action Action, target Target, decision Decision)
}

// Observers fans a decision out to each observer in order
type Observers []Observer

func (o Observers) ObserveDecision(ctx context.Context, requester *Requester, action Action, target Target, decision Decision) {
	for _, observer := range o {
		if observer != nil {
			observer.ObserveDecision(ctx, requester, action, target, decision)
		}
	}
}

// ContextKey is the type for context keys to avoid collisions
type ContextKey string

const ContextKeyRequester ContextKey = "requester"

// WithRequester attaches the requester to ctx
func WithRequester(ctx context.Context, r *Requester) context.Context {
	return context.WithValue(ctx, ContextKeyRequester, r)
}

// RequesterFromContext returns the requester set by WithRequester
func RequesterFromContext(ctx context.Context) (*Requester, bool) {
	r, ok := ctx.Value(ContextKeyRequester).(*Requester)
	return r, ok && r != nil
}
