package upgrade

import (
	"context"

	"github.com/AlexZinkM/wallet-payload/internal/model"
)

// Stream runs Upgrade in the background. Versions are delivered on the first
// channel as their workflows start; the second channel yields the final
// error (nil on success) once the first is closed.
func (o *Orchestrator) Stream(ctx context.Context) (<-chan model.Version, <-chan error) {
	versions := make(chan model.Version)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)

		err := o.Upgrade(ctx, func(v model.Version) {
			select {
			case versions <- v:
			case <-ctx.Done():
			}
		})
		close(versions)
		errc <- err
	}()

	return versions, errc
}
