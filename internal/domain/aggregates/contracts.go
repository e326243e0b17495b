package aggregates

// WriteMode records how an aggregate write was executed.
type WriteMode string

const (
	// WriteModeTransactional means the whole write sequence ran inside one explicit store transaction.
	WriteModeTransactional WriteMode = "transactional"
	// WriteModeCompensating means each step was a separate write guarded by compensating cleanup.
	WriteModeCompensating WriteMode = "compensating"
)

// Contract describes aggregate-level policy expectations for one entity kind.
type Contract struct {
	Name  string
	Notes string
}

// Aggregate is the common marker for all aggregate services.
// Implementations should return a stable contract description.
type Aggregate interface {
	Contract() Contract
}

var (
	ConceptAggregateContract = Contract{
		Name:  "Curriculum.ConceptAggregate",
		Notes: "Concept node, at most one parent CONTAINS edge, and its HAS_PREREQUISITE edges.",
	}
	QuestionAggregateContract = Contract{
		Name:  "Curriculum.QuestionAggregate",
		Notes: "Question node with an optional TESTS edge to a concept.",
	}
	QuizAggregateContract = Contract{
		Name:  "Curriculum.QuizAggregate",
		Notes: "Quiz node, one TESTS edge to a concept, INCLUDES edges to questions, CREATED edge from the author.",
	}
	ResourceAggregateContract = Contract{
		Name:  "Curriculum.ResourceAggregate",
		Notes: "Learning resource node with EXPLAINS edges to concepts.",
	}
	ContestAggregateContract = Contract{
		Name:  "Curriculum.ContestAggregate",
		Notes: "Date-ranged contest node with INCLUDES edges to quizzes.",
	}
	TaskAggregateContract = Contract{
		Name:  "Curriculum.TaskAggregate",
		Notes: "Task node owned by exactly one concept through HAS_TASK.",
	}
	LearningPathAggregateContract = Contract{
		Name:  "Curriculum.LearningPathAggregate",
		Notes: "Learning path, its owned ordered steps, and the owner's HAS_LEARNING_PATH edge.",
	}
	UserAggregateContract = Contract{
		Name:  "Curriculum.UserAggregate",
		Notes: "Plain user node acting as author and learning path owner.",
	}
)
