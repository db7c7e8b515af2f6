package domain

// Score is a text similarity result between a candidate and a reference.
type Score struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Comparison holds a retrieval-augmented answer and a direct answer to the
// same question, each scored against a reference answer.
type Comparison struct {
	Question    string `json:"question"`
	Reference   string `json:"reference"`
	RAG         Answer `json:"rag"`
	Direct      string `json:"direct"`
	RAGScore    Score  `json:"rag_score"`
	DirectScore Score  `json:"direct_score"`
}
