package render

import (
	"fmt"
	"io"

	"github.com/manipgym/manipgym/physics"
)

// WriteHuman writes a terminal-readable summary of replica 0 of the
// scene: one line per entity with its position and velocity
func WriteHuman(w io.Writer, sc *physics.Scene) {
	fmt.Fprintf(w, "\x1b[3;J\x1b[H\x1b[2J")
	for _, actor := range sc.Actors() {
		p := actor.PoseAt(0).P
		v := actor.LinearVelocities()
		fmt.Fprintf(w, "%-24s  p=(%6.3f %6.3f %6.3f)  v=(%6.3f %6.3f %6.3f)\n",
			actor.Name(), p[0], p[1], p[2],
			v.At(0, 0), v.At(0, 1), v.At(0, 2))
	}
	for _, art := range sc.Articulations() {
		p := art.RootPoseAt(0).P
		qpos := art.QPos()
		fmt.Fprintf(w, "%-24s  p=(%6.3f %6.3f %6.3f)  qpos=%v\n",
			art.Name(), p[0], p[1], p[2], qpos.RawRowView(0))
	}
}
