package authz

import (
	"context"
	"errors"
)

// Engine implements Authorizer over a policy table and a chain resolver.
type Engine struct {
	resolver *ChainResolver
	policy   map[ResourceType]map[Action]Rule
	observer Observer
}

// NewEngine creates an engine that resolves chains from store
func NewEngine(store EntityStore) *Engine {
	return &Engine{
		resolver: NewChainResolver(store),
		policy:   Policy,
	}
}

// Ensure Engine implements Authorizer interface
var _ Authorizer = (*Engine)(nil)

// SetObserver registers observers to receive every decision, replacing any
// registered before
func (e *Engine) SetObserver(observers ...Observer) {
	switch len(observers) {
	case 0:
		e.observer = nil
	case 1:
		e.observer = observers[0]
	default:
		e.observer = Observers(observers)
	}
}

// Authorize decides whether requester may perform action on target.
// A returned error means the decision could not be made (bad target, store failure);
// the four outcomes are always reported through the Decision.
func (e *Engine) Authorize(ctx context.Context, requester *Requester, action Action, target Target) (Decision, error) {
	decision, err := e.decide(ctx, requester, action, target)
	if err != nil {
		return Decision{}, err
	}
	e.observe(ctx, requester, action, target, decision)
	return decision, nil
}

// AuthorizeMemberRemoval gates removing userID from teamID
func (e *Engine) AuthorizeMemberRemoval(ctx context.Context, requester *Requester, teamID, userID string) (Decision, error) {
	target := Target{Kind: ResourceTeam, ID: teamID}
	decision, err := e.decide(ctx, requester, ActionManage, target)
	if err != nil {
		return Decision{}, err
	}

	// Applies to admins too: a team never loses its leader through member removal.
	if decision.Allowed() && decision.Chain.Team.LeaderID == userID {
		decision = Decision{Outcome: OutcomeDeny, Reason: ReasonLeaderRemoval, Chain: decision.Chain}
	}

	e.observe(ctx, requester, ActionManage, target, decision)
	return decision, nil
}

func (e *Engine) decide(ctx context.Context, requester *Requester, action Action, target Target) (Decision, error) {
	if !requester.Authenticated() {
		return Decision{Outcome: OutcomeUnauthenticated}, nil
	}

	rule, err := e.rule(action, target)
	if err != nil {
		return Decision{}, err
	}

	chain, err := e.resolver.Resolve(ctx, target)
	if err != nil {
		var missing *NotFoundError
		if errors.As(err, &missing) {
			return Decision{Outcome: OutcomeNotFound, Missing: missing}, nil
		}
		return Decision{}, err
	}

	return Evaluate(rule, requester, chain), nil
}

// rule looks up the policy entry and checks the target has the shape the action needs
func (e *Engine) rule(action Action, target Target) (Rule, error) {
	if !target.Kind.Valid() {
		return Rule{}, Invalid("unknown resource type %q", target.Kind)
	}
	rule, ok := e.policy[target.Kind][action]
	if !ok {
		return Rule{}, Invalid("action %q is not defined for %s", action, target.Kind)
	}

	switch {
	case action == ActionCreate && target.ID != "":
		return Rule{}, Invalid("create takes a parent id, not an id")
	case action == ActionCreate && target.Kind != ResourceTeam && target.ParentID == "":
		return Rule{}, Invalid("%s id is required", target.Kind.Parent())
	case action == ActionRead && target.Kind == ResourceTeam && target.ID == "":
		return Rule{}, Invalid("team id is required")
	case action == ActionRead && target.ID == "" && target.ParentID == "":
		return Rule{}, Invalid("%s id is required", target.Kind)
	case action != ActionCreate && action != ActionRead && target.ID == "":
		return Rule{}, Invalid("%s id is required", target.Kind)
	}
	return rule, nil
}

func (e *Engine) observe(ctx context.Context, requester *Requester, action Action, target Target, decision Decision) {
	if e.observer != nil {
		e.observer.ObserveDecision(ctx, requester, action, target, decision)
	}
}
