package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSampler_SampleAnswer tests snippet selection order.
func TestSampler_SampleAnswer(t *testing.T) {
	s := NewSampler(nil)

	tests := []struct {
		question string
		prefix   string
	}{
		{question: "Implement binary search", prefix: "**Binary Search Answer:**"},
		{question: "How do you reverse a linked list?", prefix: "**Reverse Linked List Answer:**"},
		{question: "What is the difference between an array and a linked list?", prefix: "**Array vs Linked List Answer:**"},
		{question: "Insert into a linked list", prefix: "**Linked List Answer:**"},
		{question: "Explain the concept of Big O notation.", prefix: "**Big O Answer:**"},
		{question: "Reverse a string in place", prefix: "**Reverse String Answer:**"},
		{question: "What is the difference between stack and heap memory?", prefix: "**Stack vs Heap Answer:**"},
		{question: "Explain the differences between SQL and NoSQL databases.", prefix: "**SQL vs NoSQL Answer:**"},
		{question: "Design a system to handle 1 million concurrent users.", prefix: "**System Design Answer:**"},
		{question: "How would you handle a conflict between two employees?", prefix: "**HR Answer:**"},
		{question: "What is a closure?", prefix: "**Sample Answer:**"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.True(t, len(s.SampleAnswer(tt.question)) > len(tt.prefix))
			assert.Equal(t, tt.prefix, s.SampleAnswer(tt.question)[:len(tt.prefix)])
		})
	}
}

// TestTables_FallbackQuestions tests table lookup and the default role.
func TestTables_FallbackQuestions(t *testing.T) {
	tb := DefaultTables()

	hr := tb.FallbackQuestions("hr", "JUNIOR")
	assert.Len(t, hr, 5)
	assert.Equal(t, "What is your understanding of employee confidentiality?", hr[0])

	unknown := tb.FallbackQuestions("Data Scientist", "senior")
	assert.Equal(t, "Design a system to handle 1 million concurrent users.", unknown[0])

	unknown[0] = "mutated"
	assert.NotEqual(t, "mutated", tb.FallbackQuestions("Data Scientist", "senior")[0], "Callers get a copy.")
}
