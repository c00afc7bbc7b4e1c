package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	random "github.com/mazen160/go-random"
)

// Pause sleeps for a random duration in [min, max], returning early when
// ctx is canceled. Every wait in the harvest pipeline goes through here so
// a mid-run stop never hangs on a sleep.
func Pause(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		extra, err := random.IntRange(0, int(max-min))
		if err == nil {
			d += time.Duration(extra)
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HumanScroll scrolls through the page in uneven steps with occasional
// backtracking, the way a reader would.
func HumanScroll(ctx context.Context, page *rod.Page) {
	heightVal, err := page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return
	}
	height := heightVal.Value.Int()
	viewportVal, err := page.Eval(`() => window.innerHeight`)
	if err != nil {
		return
	}
	viewport := viewportVal.Value.Int()
	if viewport <= 0 {
		return
	}

	position := 0
	steps := height/viewport + 1
	for i := 0; i < steps; i++ {
		step, err := random.IntRange(300, viewport+1)
		if err != nil {
			step = viewport / 2
		}
		position += step
		if _, err := page.Eval(fmt.Sprintf(`() => window.scrollTo(0, %d)`, position)); err != nil {
			return
		}
		if err := Pause(ctx, 300*time.Millisecond, 1200*time.Millisecond); err != nil {
			return
		}
		if back, _ := random.IntRange(0, 5); back == 0 {
			position -= 100
			_, _ = page.Eval(fmt.Sprintf(`() => window.scrollTo(0, %d)`, position))
		}
		if position >= height {
			break
		}
	}
}

// HumanInteract wiggles the mouse across the viewport and scrolls,
// producing input events a headless bot would not emit.
func HumanInteract(ctx context.Context, page *rod.Page) {
	moves, err := random.IntRange(3, 8)
	if err != nil {
		moves = 4
	}
	for i := 0; i < moves; i++ {
		x, _ := random.IntRange(100, 1180)
		y, _ := random.IntRange(100, 980)
		if err := page.Mouse.MoveTo(proto.Point{X: float64(x), Y: float64(y)}); err != nil {
			break
		}
		if err := Pause(ctx, 100*time.Millisecond, 500*time.Millisecond); err != nil {
			return
		}
	}
	HumanScroll(ctx, page)
}
