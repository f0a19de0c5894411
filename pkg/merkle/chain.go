package merkle

import "github.com/malvinraqin/portfolio/pkg/llm"

// Chain links each turn to the one before it and returns the head node.
// It returns nil for an empty conversation.
func Chain(turns []llm.Message) *Node {
	var head *Node
	for _, t := range turns {
		head = NewNode(t, head)
	}

	return head
}

// HeadHash is the hash of Chain(turns), or "" for an empty conversation.
func HeadHash(turns []llm.Message) string {
	head := Chain(turns)
	if head == nil {
		return ""
	}

	return head.Hash
}
