package podcast

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the store.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobExists is returned when putting a job whose id is already taken.
	ErrJobExists = errors.New("job already exists")
)
