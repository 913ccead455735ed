package logging

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
)

// DecisionLogger writes one debug line per authorization decision
type DecisionLogger struct {
	logger *logrus.Logger
}

var _ authz.Observer = (*DecisionLogger)(nil)

func NewDecisionLogger(logger *logrus.Logger) *DecisionLogger {
	if logger == nil {
		logger = logrus.New()
	}
	return &DecisionLogger{logger: logger}
}

func (l *DecisionLogger) ObserveDecision(_ context.Context, requester *authz.Requester, action authz.Action, target authz.Target, decision authz.Decision) {
	if !l.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	fields := logrus.Fields{
		"resource": string(target.Kind),
		"action":   string(action),
		"outcome":  string(decision.Outcome),
	}
	if requester.Authenticated() {
		fields["user_id"] = requester.ID
		fields["role"] = string(requester.Role)
	}
	if target.ID != "" {
		fields["target_id"] = target.ID
	}
	if target.ParentID != "" {
		fields["parent_id"] = target.ParentID
	}
	switch decision.Outcome {
	case authz.OutcomeDeny:
		fields["reason"] = decision.Reason
	case authz.OutcomeNotFound:
		if decision.Missing != nil {
			fields["missing"] = decision.Missing.Error()
		}
	}

	l.logger.WithFields(fields).Debug("Authorization decision")
}
