package export

// Point is a canvas coordinate.
type Point struct {
	X, Y float64
}

// Arc is the quadratic Bezier the timeline is drawn on: P0 low left,
// P1 the high middle control point, P2 slightly higher on the right.
type Arc struct {
	P0, P1, P2 Point
}

const (
	arcPadding     = 50.0
	arcHeightRatio = 0.6
)

// NewArc fits the arc to a canvas of the given size.
func NewArc(width, height float64) Arc {
	return Arc{
		P0: Point{X: arcPadding, Y: height - 20},
		P1: Point{X: width / 2, Y: height - height*arcHeightRatio},
		P2: Point{X: width - arcPadding, Y: height - 30},
	}
}

// At evaluates B(t) = (1-t)^2 P0 + 2(1-t)t P1 + t^2 P2.
func (a Arc) At(t float64) Point {
	u := 1 - t
	return Point{
		X: u*u*a.P0.X + 2*u*t*a.P1.X + t*t*a.P2.X,
		Y: u*u*a.P0.Y + 2*u*t*a.P1.Y + t*t*a.P2.Y,
	}
}

// Sub returns the quadratic covering [t0, t1] of the arc. The control
// point is the blossom of the curve at (t0, t1), so the piece lies exactly
// on the full arc.
func (a Arc) Sub(t0, t1 float64) (start, ctrl, end Point) {
	u0, u1 := 1-t0, 1-t1
	ctrl = Point{
		X: u0*u1*a.P0.X + (u0*t1+t0*u1)*a.P1.X + t0*t1*a.P2.X,
		Y: u0*u1*a.P0.Y + (u0*t1+t0*u1)*a.P1.Y + t0*t1*a.P2.Y,
	}
	return a.At(t0), ctrl, a.At(t1)
}
