package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// CommentService handles task comments
type CommentService struct {
	authz authz.Authorizer
	store *store.Store
}

// NewCommentService creates a new comment service
func NewCommentService(az authz.Authorizer, s *store.Store) *CommentService {
	return &CommentService{authz: az, store: s}
}

// CreateCommentInput represents input for commenting on a task
type CreateCommentInput struct {
	Text   string `json:"text" binding:"required"`
	TaskID string `json:"task_id" binding:"required"`
}

// UpdateCommentInput replaces the comment text
type UpdateCommentInput struct {
	Text string `json:"text" binding:"required"`
}

// CreateComment adds a comment authored by the requester
func (s *CommentService) CreateComment(ctx context.Context, r *authz.Requester, input CreateCommentInput) (*db.CommentView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, authz.Invalid("comment text is required")
	}
	if input.TaskID == "" {
		return nil, authz.Invalid("task_id is required")
	}

	chain, err := authorize(ctx, s.authz, r, authz.ActionCreate, authz.Target{Kind: authz.ResourceComment, ParentID: input.TaskID})
	if err != nil {
		return nil, err
	}

	comment := &db.Comment{Text: text, TaskID: chain.Task.ID, UserID: r.ID}
	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return s.view(ctx, comment)
}

// ListTaskComments returns the comments of a task, newest first
func (s *CommentService) ListTaskComments(ctx context.Context, r *authz.Requester, taskID string) ([]db.CommentView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, s.authz, r, authz.ActionRead, authz.Target{Kind: authz.ResourceComment, ParentID: taskID}); err != nil {
		return nil, err
	}

	comments, err := s.store.Comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	authorIDs := make([]string, len(comments))
	for i := range comments {
		authorIDs[i] = comments[i].UserID
	}
	summaries, err := userSummaries(ctx, s.store.Users, authorIDs...)
	if err != nil {
		return nil, err
	}

	views := make([]db.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, db.CommentView{Comment: c, Author: summaryPtr(summaries, c.UserID)})
	}
	return views, nil
}

// UpdateComment rewrites the text of a comment
func (s *CommentService) UpdateComment(ctx context.Context, r *authz.Requester, commentID string, input UpdateCommentInput) (*db.CommentView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, authz.Invalid("comment text is required")
	}

	chain, err := authorize(ctx, s.authz, r, authz.ActionUpdate, authz.Target{Kind: authz.ResourceComment, ID: commentID})
	if err != nil {
		return nil, err
	}

	comment := chain.Comment
	comment.Text = text
	if err := s.store.Comments.Update(ctx, comment); err != nil {
		return nil, storeError(err, authz.ResourceComment, commentID)
	}
	return s.view(ctx, comment)
}

// DeleteComment deletes a comment
func (s *CommentService) DeleteComment(ctx context.Context, r *authz.Requester, commentID string) error {
	if err := requireRequester(r); err != nil {
		return err
	}
	if _, err := authorize(ctx, s.authz, r, authz.ActionDelete, authz.Target{Kind: authz.ResourceComment, ID: commentID}); err != nil {
		return err
	}
	if err := s.store.Comments.Delete(ctx, commentID); err != nil {
		return storeError(err, authz.ResourceComment, commentID)
	}
	return nil
}

func (s *CommentService) view(ctx context.Context, comment *db.Comment) (*db.CommentView, error) {
	summaries, err := userSummaries(ctx, s.store.Users, comment.UserID)
	if err != nil {
		return nil, err
	}
	return &db.CommentView{Comment: *comment, Author: summaryPtr(summaries, comment.UserID)}, nil
}
