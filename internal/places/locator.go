package places

import (
	"context"
	"time"
)

// Position is a geographic reference point.
type Position struct {
	Lat float64
	Lng float64
}

// Locator resolves the caller's current position. Implementations must
// respect the context deadline; on failure the caller falls back to the
// configured default position.
type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// StaticLocator always reports a fixed position. Used as the server-side
// default and in tests.
type StaticLocator struct {
	Pos Position
}

func (l StaticLocator) CurrentPosition(context.Context) (Position, error) {
	return l.Pos, nil
}

// Resolve asks loc for a position within timeout, returning fallback when
// loc is nil, errors out, or the deadline passes.
func Resolve(ctx context.Context, loc Locator, timeout time.Duration, fallback Position) Position {
	if loc == nil {
		return fallback
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type located struct {
		pos Position
		err error
	}
	ch := make(chan located, 1)
	go func() {
		pos, err := loc.CurrentPosition(ctx)
		ch <- located{pos: pos, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return fallback
		}
		return res.pos
	case <-ctx.Done():
		return fallback
	}
}
