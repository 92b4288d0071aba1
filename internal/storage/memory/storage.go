package memory

// Storage bundles the in-memory repositories behind the same shape as
// the postgres one.
type Storage struct {
	*InMemoryUserManager
	*InMemorySessionManager
}

func NewStorage() *Storage {
	return &Storage{
		InMemoryUserManager:    NewUserRepository(),
		InMemorySessionManager: NewSessionRepository(),
	}
}
