package model

import "fmt"

// ProposalStatus tracks where a proposal sits in the review workflow.
type ProposalStatus string

// Proposal statuses.
const (
	ProposalPending               ProposalStatus = "pending"
	ProposalApproved              ProposalStatus = "approved"
	ProposalRejected              ProposalStatus = "rejected"
	ProposalRevertedToEnhancement ProposalStatus = "reverted_to_enhancement"
)

// ParseProposalStatus converts a stored or user supplied value into a ProposalStatus.
func ParseProposalStatus(raw string) (ProposalStatus, error) {
	switch s := ProposalStatus(raw); s {
	case ProposalPending, ProposalApproved, ProposalRejected, ProposalRevertedToEnhancement:
		return s, nil
	default:
		return "", fmt.Errorf("unknown proposal status %q", raw)
	}
}

// RuleStatus is the status recorded on live rules and their history.
// Live rules are always approved.
type RuleStatus string

// RuleApproved is the only status a live rule carries.
const RuleApproved RuleStatus = "approved"

// EnhancementStatus tracks the informal suggestion lifecycle.
type EnhancementStatus string

// Enhancement statuses.
const (
	EnhancementOpen        EnhancementStatus = "open"
	EnhancementAccepted    EnhancementStatus = "accepted"
	EnhancementCompleted   EnhancementStatus = "completed"
	EnhancementRejected    EnhancementStatus = "rejected"
	EnhancementTransferred EnhancementStatus = "transferred"
)

// ParseEnhancementStatus converts a stored value into an EnhancementStatus.
func ParseEnhancementStatus(raw string) (EnhancementStatus, error) {
	switch s := EnhancementStatus(raw); s {
	case EnhancementOpen, EnhancementAccepted, EnhancementCompleted, EnhancementRejected, EnhancementTransferred:
		return s, nil
	default:
		return "", fmt.Errorf("unknown enhancement status %q", raw)
	}
}

// FeedbackType classifies reviewer commentary on a proposal.
type FeedbackType string

// Feedback types.
const (
	FeedbackAccept       FeedbackType = "accept"
	FeedbackReject       FeedbackType = "reject"
	FeedbackNeedsChanges FeedbackType = "needs_changes"
)

// ParseFeedbackType converts a raw value into a FeedbackType.
func ParseFeedbackType(raw string) (FeedbackType, error) {
	switch f := FeedbackType(raw); f {
	case FeedbackAccept, FeedbackReject, FeedbackNeedsChanges:
		return f, nil
	default:
		return "", fmt.Errorf("unknown feedback type %q", raw)
	}
}
