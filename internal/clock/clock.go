package clock

import "time"

// Clock abstracts the current time so services can be tested against a
// known instant.
type Clock interface {
	Now() time.Time
}

type system struct{}

// NewSystem returns a Clock backed by time.Now, in UTC.
func NewSystem() Clock { return system{} }

func (system) Now() time.Time { return time.Now().UTC() }

type fixed time.Time

// NewFixed returns a Clock frozen at t. Test helper.
func NewFixed(t time.Time) Clock { return fixed(t.UTC()) }

func (f fixed) Now() time.Time { return time.Time(f) }
