package domain

// Actor identifies who performs an operation.
type Actor struct {
	ID   string
	Role UserRole
}

// ActorOf returns the actor view of a user.
func ActorOf(u *User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// IsStaff reports whether the actor triages complaints.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}
