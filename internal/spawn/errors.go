package spawn

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks parameters rejected before any entity is created.
	ErrConfiguration = errors.New("spawn configuration error")
	// ErrAlreadyStarted is wrapped together with ErrConfiguration when Start
	// is called on a scheduler that has left Idle.
	ErrAlreadyStarted = errors.New("spawn run already started")
	// ErrRegistryFull is returned when an append would exceed the target.
	ErrRegistryFull = errors.New("entity registry is full")
)

// CreationError reports the entity whose creation halted a spawn run.
type CreationError struct {
	Seq      int
	Template string
	Err      error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("create entity %d from template %q: %v", e.Seq, e.Template, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }
