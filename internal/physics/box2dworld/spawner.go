package box2dworld

import (
	"fmt"

	"github.com/san-kum/jointsync/internal/scene"
)

// Spawner creates the bodies of a scene a batch at a time, the way a host
// streams bodies into its world over several frames.
type Spawner struct {
	world *World
	queue []scene.ObjectDescriptor
	batch int
}

// NewSpawner queues every object of desc. A batch below 1 spawns everything
// on the first Tick.
func NewSpawner(w *World, desc *scene.Descriptor, batch int) *Spawner {
	var queue []scene.ObjectDescriptor
	if desc != nil {
		queue = append(queue, desc.Objects...)
	}
	if batch < 1 {
		batch = len(queue)
	}
	return &Spawner{world: w, queue: queue, batch: batch}
}

// Tick creates the next batch and returns how many bodies were created.
func (s *Spawner) Tick() (int, error) {
	n := min(s.batch, len(s.queue))
	for i := 0; i < n; i++ {
		if _, err := s.world.AddBody(s.queue[i]); err != nil {
			s.queue = s.queue[i:]
			return i, fmt.Errorf("spawn %q: %w", s.queue[0].ID, err)
		}
	}
	s.queue = s.queue[n:]
	return n, nil
}

func (s *Spawner) Remaining() int { return len(s.queue) }

func (s *Spawner) Done() bool { return len(s.queue) == 0 }
