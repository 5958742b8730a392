package driven

// Tokenizer converts between text and token ids of a fixed vocabulary.
type Tokenizer interface {
	// Encode returns the token ids of text.
	Encode(text string) ([]int, error)

	// Decode returns the text for a token id sequence.
	Decode(tokens []int) (string, error)

	// Name returns the vocabulary name (e.g., "cl100k_base").
	Name() string
}
