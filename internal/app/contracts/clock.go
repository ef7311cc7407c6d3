package contracts

import (
	"time"
)

// Clock is injected wherever time is read so scoring and transitions stay
// reproducible in tests.
type Clock interface {
	Now() time.Time
}
