package curriculum

import "strings"

// Kind is the node label of a curriculum entity.
type Kind string

const (
	KindConcept          Kind = "Concept"
	KindQuestion         Kind = "Question"
	KindQuiz             Kind = "Quiz"
	KindResource         Kind = "Resource"
	KindContest          Kind = "Contest"
	KindTask             Kind = "Task"
	KindLearningPath     Kind = "LearningPath"
	KindLearningPathStep Kind = "LearningPathStep"
	KindUser             Kind = "User"
)

var kinds = []Kind{
	KindConcept,
	KindQuestion,
	KindQuiz,
	KindResource,
	KindContest,
	KindTask,
	KindLearningPath,
	KindLearningPathStep,
	KindUser,
}

// Kinds lists every known node kind.
func Kinds() []Kind { return append([]Kind(nil), kinds...) }

// Valid reports whether k is one of the closed set of node kinds.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Noun is the lower-case name used in error messages.
func (k Kind) Noun() string {
	switch k {
	case KindLearningPath:
		return "learning path"
	case KindLearningPathStep:
		return "learning path step"
	default:
		return strings.ToLower(string(k))
	}
}

// RelType is a relationship type between curriculum entities.
type RelType string

const (
	RelHasTask         RelType = "HAS_TASK"
	RelContains        RelType = "CONTAINS"
	RelHasPrerequisite RelType = "HAS_PREREQUISITE"
	RelIncludes        RelType = "INCLUDES"
	RelTests           RelType = "TESTS"
	RelExplains        RelType = "EXPLAINS"
	RelCreated         RelType = "CREATED"
	RelHasLearningPath RelType = "HAS_LEARNING_PATH"
	RelHasStep         RelType = "HAS_STEP"
	RelUsesResource    RelType = "USES_RESOURCE"
)

var relTypes = []RelType{
	RelHasTask,
	RelContains,
	RelHasPrerequisite,
	RelIncludes,
	RelTests,
	RelExplains,
	RelCreated,
	RelHasLearningPath,
	RelHasStep,
	RelUsesResource,
}

// Valid reports whether t is one of the closed set of relationship types.
func (t RelType) Valid() bool {
	for _, known := range relTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t RelType) String() string { return string(t) }

// Direction is the orientation of a relationship relative to the aggregate root.
type Direction string

const (
	// Outgoing edges start at the root: (root)-[:T]->(target).
	Outgoing Direction = "out"
	// Incoming edges end at the root: (target)-[:T]->(root).
	Incoming Direction = "in"
)

func (d Direction) Valid() bool { return d == Outgoing || d == Incoming }
