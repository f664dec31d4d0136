package provider

import "log/slog"

// Task types accepted on embedding requests. They follow the Gemini
// task type names, other providers map them to their closest
// equivalent or ignore them.
const (
	TaskTypeRetrievalQuery     = "RETRIEVAL_QUERY"
	TaskTypeRetrievalDocument  = "RETRIEVAL_DOCUMENT"
	TaskTypeSemanticSimilarity = "SEMANTIC_SIMILARITY"
	TaskTypeClassification     = "CLASSIFICATION"
	TaskTypeClustering         = "CLUSTERING"
	TaskTypeQuestionAnswering  = "QUESTION_ANSWERING"
	TaskTypeFactVerification   = "FACT_VERIFICATION"
	TaskTypeCodeRetrievalQuery = "CODE_RETRIEVAL_QUERY"
)

// DefaultTaskType is used when a request does not specify a task type.
const DefaultTaskType = TaskTypeRetrievalDocument

var validTaskTypes = map[string]struct{}{
	TaskTypeRetrievalQuery:     {},
	TaskTypeRetrievalDocument:  {},
	TaskTypeSemanticSimilarity: {},
	TaskTypeClassification:     {},
	TaskTypeClustering:         {},
	TaskTypeQuestionAnswering:  {},
	TaskTypeFactVerification:   {},
	TaskTypeCodeRetrievalQuery: {},
}

// NormalizeTaskType validates a requested task type. An empty value
// selects DefaultTaskType. Unknown values log a warning and fall back
// to DefaultTaskType instead of failing the request.
func NormalizeTaskType(taskType string) string {
	if taskType == "" {
		return DefaultTaskType
	}
	if _, ok := validTaskTypes[taskType]; !ok {
		slog.Warn("invalid embedding task type, using default",
			"taskType", taskType, "default", DefaultTaskType)
		return DefaultTaskType
	}
	return taskType
}
