package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/Stachugit-s/teamtaskmanager2/db"
)

// ChainResolver walks ownership references up to the owning team.
// It is the only place dangling references are detected.
type ChainResolver struct {
	store EntityStore
}

// NewChainResolver creates a resolver reading from store
func NewChainResolver(store EntityStore) *ChainResolver {
	return &ChainResolver{store: store}
}

// Resolve loads the chain of target. The first missing link is returned as a
// *NotFoundError: for the link the caller named directly Integrity is false,
// for every link above it Integrity is true.
func (r *ChainResolver) Resolve(ctx context.Context, target Target) (*Chain, error) {
	chain := &Chain{}

	kind, id := target.Kind, target.ID
	if id == "" {
		kind, id = target.Kind.Parent(), target.ParentID
	}

	direct := true
	for kind != "" {
		next, nextID, err := r.load(ctx, chain, kind, id)
		if err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				return nil, &NotFoundError{Kind: kind, ID: id, Integrity: !direct}
			}
			return nil, fmt.Errorf("failed to resolve %s %s: %w", kind, id, err)
		}
		direct = false
		kind, id = next, nextID
	}
	return chain, nil
}

// load fetches one link into chain and returns the reference to its owner
func (r *ChainResolver) load(ctx context.Context, chain *Chain, kind ResourceType, id string) (ResourceType, string, error) {
	if id == "" {
		return "", "", db.ErrRecordNotFound
	}

	switch kind {
	case ResourceComment:
		comment, err := r.store.GetComment(ctx, id)
		if err != nil {
			return "", "", err
		}
		chain.Comment = comment
		return ResourceTask, comment.TaskID, nil

	case ResourceTask:
		task, err := r.store.GetTask(ctx, id)
		if err != nil {
			return "", "", err
		}
		chain.Task = task
		return ResourceProject, task.ProjectID, nil

	case ResourceProject:
		project, err := r.store.GetProject(ctx, id)
		if err != nil {
			return "", "", err
		}
		chain.Project = project
		return ResourceTeam, project.TeamID, nil

	case ResourceTeam:
		team, err := r.store.GetTeam(ctx, id)
		if err != nil {
			return "", "", err
		}
		chain.Team = team
		return "", "", nil
	}

	return "", "", Invalid("unknown resource type %q", kind)
}
