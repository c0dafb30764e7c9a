package social

// Viewer is the identity on whose behalf a read or write is evaluated.
// It is either Anonymous or Authenticated; predicates switch on the concrete type.
type Viewer interface {
	viewer()
}

// Anonymous is a caller without an authenticated identity.
type Anonymous struct{}

// Authenticated is a caller acting as the user (and profile) UserID.
type Authenticated struct {
	UserID uint
}

func (Anonymous) viewer()     {}
func (Authenticated) viewer() {}

// ViewerFor returns Authenticated for a non-zero user ID and Anonymous otherwise.
func ViewerFor(userID uint) Viewer {
	if userID == 0 {
		return Anonymous{}
	}
	return Authenticated{UserID: userID}
}
