package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeMissionEmptyID            = "MISSION_EMPTY_ID"
	CodeMissionEmptyName          = "MISSION_EMPTY_NAME"
	CodeMissionDuplicateID        = "MISSION_DUPLICATE_ID"
	CodeMissionNegativeReward     = "MISSION_NEGATIVE_REWARD"
	CodeMissionInvalidTimeLimit   = "MISSION_INVALID_TIME_LIMIT"
	CodeConditionUnknownKind      = "CONDITION_UNKNOWN_KIND"
	CodeConditionMissingPredicate = "CONDITION_MISSING_PREDICATE"
	CodeConditionNegativeHold     = "CONDITION_NEGATIVE_HOLD"
	CodePrerequisiteNotRegistered = "PREREQUISITE_NOT_REGISTERED"
	CodePrerequisiteCycle         = "PREREQUISITE_CYCLE"
	CodePrerequisiteUnmet         = "PREREQUISITE_UNMET"
	CodeMissionInvalidTransition  = "MISSION_INVALID_TRANSITION"
	CodeMissionNotActive          = "MISSION_NOT_ACTIVE"
	CodeConditionEvalFailed       = "CONDITION_EVAL_FAILED"
	CodePackInvalid               = "PACK_INVALID"
	CodeNotFound                  = "NOT_FOUND"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Mission authoring errors
		CodeMissionEmptyID:          "Mission id cannot be empty",
		CodeMissionEmptyName:        "Mission name cannot be empty",
		CodeMissionDuplicateID:      "Mission {{.MissionID}} is already registered",
		CodeMissionNegativeReward:   "Reward field {{.Field}} must be non-negative",
		CodeMissionInvalidTimeLimit: "Mission time limit must be non-negative",

		// Condition authoring errors
		CodeConditionUnknownKind:      "Unknown condition kind: {{.Kind}}",
		CodeConditionMissingPredicate: "Custom condition {{.Name}} has no registered predicate",
		CodeConditionNegativeHold:     "Condition hold duration must be non-negative",

		// Prerequisite errors
		CodePrerequisiteNotRegistered: "Prerequisite mission {{.PrerequisiteID}} is not registered",
		CodePrerequisiteCycle:         "Mission prerequisites form a cycle involving {{.MissionID}}",
		CodePrerequisiteUnmet:         "Mission {{.MissionID}} requires {{.PrerequisiteID}} to be completed first",

		// Lifecycle errors
		CodeMissionInvalidTransition: "Mission {{.MissionID}} cannot transition from {{.FromStatus}} to {{.ToStatus}}",
		CodeMissionNotActive:         "No mission is currently active",

		// Runtime evaluation errors
		CodeConditionEvalFailed: "Condition {{.Kind}} could not be evaluated",

		// Pack errors
		CodePackInvalid: "Mission pack is invalid: {{.Reason}}",

		// Storage errors
		CodeNotFound: "The requested record was not found",
	},
}

func init() {
	RegisterCatalog("en-US", enUSCatalog)
}
