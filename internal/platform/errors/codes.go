// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Mission authoring errors
	CodeMissionEmptyID          Code = "MISSION_EMPTY_ID"
	CodeMissionEmptyName        Code = "MISSION_EMPTY_NAME"
	CodeMissionDuplicateID      Code = "MISSION_DUPLICATE_ID"
	CodeMissionNegativeReward   Code = "MISSION_NEGATIVE_REWARD"
	CodeMissionInvalidTimeLimit Code = "MISSION_INVALID_TIME_LIMIT"

	// Condition authoring errors
	CodeConditionUnknownKind      Code = "CONDITION_UNKNOWN_KIND"
	CodeConditionMissingPredicate Code = "CONDITION_MISSING_PREDICATE"
	CodeConditionNegativeHold     Code = "CONDITION_NEGATIVE_HOLD"

	// Prerequisite errors
	CodePrerequisiteNotRegistered Code = "PREREQUISITE_NOT_REGISTERED"
	CodePrerequisiteCycle         Code = "PREREQUISITE_CYCLE"
	CodePrerequisiteUnmet         Code = "PREREQUISITE_UNMET"

	// Lifecycle errors
	CodeMissionInvalidTransition Code = "MISSION_INVALID_TRANSITION"
	CodeMissionNotActive         Code = "MISSION_NOT_ACTIVE"

	// Runtime evaluation errors
	CodeConditionEvalFailed Code = "CONDITION_EVAL_FAILED"

	// Pack errors
	CodePackInvalid Code = "PACK_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad authoring data
	case CodeMissionEmptyID,
		CodeMissionEmptyName,
		CodeMissionDuplicateID,
		CodeMissionNegativeReward,
		CodeMissionInvalidTimeLimit,
		CodeConditionUnknownKind,
		CodeConditionMissingPredicate,
		CodeConditionNegativeHold,
		CodePrerequisiteNotRegistered,
		CodePrerequisiteCycle,
		CodePackInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodePrerequisiteUnmet,
		CodeMissionInvalidTransition,
		CodeMissionNotActive:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}

// IsValidation reports whether the code describes bad authoring data.
// Validation failures surface at registration, never mid-session.
func (c Code) IsValidation() bool {
	switch c {
	case CodeMissionEmptyID,
		CodeMissionEmptyName,
		CodeMissionDuplicateID,
		CodeMissionNegativeReward,
		CodeMissionInvalidTimeLimit,
		CodeConditionUnknownKind,
		CodeConditionMissingPredicate,
		CodeConditionNegativeHold,
		CodePrerequisiteNotRegistered,
		CodePrerequisiteCycle,
		CodePackInvalid:
		return true
	}
	return false
}

// IsTransition reports whether the code describes a rejected lifecycle
// transition. These are always recoverable by the caller.
func (c Code) IsTransition() bool {
	switch c {
	case CodePrerequisiteUnmet,
		CodeMissionInvalidTransition,
		CodeMissionNotActive:
		return true
	}
	return false
}
