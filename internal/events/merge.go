package events

import (
	"context"
	"sync"
)

// Merge fans several event sources into one channel. Events from one source
// keep their order. The result is closed once every source is closed or ctx
// is done.
func Merge(ctx context.Context, sources ...<-chan Event) <-chan Event {
	out := make(chan Event, 64)
	var wg sync.WaitGroup
	for _, src := range sources {
		if src == nil {
			continue
		}
		wg.Add(1)
		go func(src <-chan Event) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case e, ok := <-src:
					if !ok {
						return
					}
					select {
					case out <- e:
					case <-ctx.Done():
						return
					}
				}
			}
		}(src)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
