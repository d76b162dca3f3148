package testutil

// Fixed identifiers for deterministic tests.
const (
	TestUserID    = "uid-00000000-0001"
	TestUserID2   = "uid-00000000-0002"
	TestSessionID = "session-00000000-0001"
	TestPhone     = "254712345678"
)
