package driven

// Environment resolves environment variables, including any loaded from
// .env files.
type Environment interface {
	// Lookup returns the value of key and whether it is set.
	Lookup(key string) (string, bool)
}
