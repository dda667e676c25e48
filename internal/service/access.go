package service

import (
	"intervue/internal/apperror"
	"intervue/internal/model"
	"slices"
)

func requireRole(actor model.Identity, roles ...model.Role) error {
	if slices.Contains(roles, actor.Role) {
		return nil
	}
	return apperror.NewForbidden("role " + string(actor.Role) + " may not perform this action")
}

// requireOwner passes admins and the interviewer who owns the resource
func requireOwner(actor model.Identity, interviewerID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == model.RoleInterviewer && actor.UserID == interviewerID {
		return nil
	}
	return apperror.NewForbidden("only the owning interviewer or an admin may do this")
}

// requireParticipant passes admins and either side of the interview
func requireParticipant(actor model.Identity, candidateID, interviewerID string) error {
	if actor.IsAdmin() || actor.UserID == candidateID || actor.UserID == interviewerID {
		return nil
	}
	return apperror.NewForbidden("not a participant")
}
