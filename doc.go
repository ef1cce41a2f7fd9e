// Package bramble is a procedural branching-growth animation engine. Trees of
// axis-aligned segments sprout from one edge of a canvas, branch
// stochastically, flow around UI regions and stop when they run out of space
// or time.
//
// # Quick start
//
// The simplest host is [ebitenview.Run], which opens a window and drives
// the frame loop for you. Without a display, use [Headless]:
//
//	env := &bramble.StaticEnvironment{Width: 1280, Height: 720}
//	h := bramble.NewHeadless(bramble.DefaultConfig(), env)
//	h.Driver.Init()
//	h.Run(ctx, 600, nil)
//	h.Canvas.SavePNG("trees.png")
//
// For full control, create a [Driver] with your own [Canvas] and
// [FrameQueue], and call [FrameQueue.RunFrame] once per display refresh.
//
// # Model
//
// A [Tree] owns an append-only arena of [Segment] values linked by index.
// Each tick drains a bounded number of pending child requests, advances a
// bounded number of growing segments, branches from fresh completions and
// random terminal nodes, and recovers from stalls. The per-tick caps in
// [Profile] bound the cost of a tick no matter how large a tree grows.
//
// The [CollisionField] turns the host's UI regions into padded rectangles.
// New segments never end inside one and growing segments stop when their
// tip enters one. Centers of application regions become targets that trees
// grow around.
//
// # Profiles
//
// [VerticalProfile] is the canonical variant: black hairlines rising from
// the bottom edge on white, avoiding UI regions. [HorizontalProfile] grows
// rightward with depth colours, glow and recession cycling.
//
// [ebitenview.Run]: https://pkg.go.dev/github.com/phanxgames/bramble/ebitenview#Run
package bramble
