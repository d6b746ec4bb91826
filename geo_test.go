package sprite

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
)

const epsilon = 1e-4

func approx(a, b float32) bool {
	return math32.Abs(a-b) < epsilon
}

func TestRectContains(t *testing.T) {
	r := R(10, 10, 20, 20)
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Pt(15, 15), true},
		{"top-left corner", Pt(10, 10), true},
		{"bottom-right edge exclusive", Pt(30, 30), false},
		{"left of", Pt(9, 15), false},
		{"below", Pt(15, 31), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.p); got != tt.want {
				t.Errorf("%+v.Contains(%+v) = %v, want %v", r, tt.p, got, tt.want)
			}
		})
	}
}

func TestRectOverlap(t *testing.T) {
	r := R(0, 0, 10, 10)
	tests := []struct {
		name       string
		other      Rect
		all, none  bool
		intersects bool
	}{
		{"inner", R(2, 2, 4, 4), true, false, true},
		{"same", R(0, 0, 10, 10), true, false, true},
		{"overlapping", R(5, 5, 10, 10), false, false, true},
		{"disjoint right", R(11, 0, 5, 5), false, true, false},
		{"disjoint below", R(0, 20, 5, 5), false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ContainsAll(tt.other); got != tt.all {
				t.Errorf("ContainsAll = %v, want %v", got, tt.all)
			}
			if got := r.ContainsNone(tt.other); got != tt.none {
				t.Errorf("ContainsNone = %v, want %v", got, tt.none)
			}
			if got := r.Intersects(tt.other); got != tt.intersects {
				t.Errorf("Intersects = %v, want %v", got, tt.intersects)
			}
		})
	}
}

func TestRectUClip(t *testing.T) {
	bounds := RU(0, 0, 10, 10)
	tests := []struct {
		name    string
		other   RectU
		want    RectU
		wantOff PointU
		wantOK  bool
	}{
		{"inside", RU(2, 2, 3, 3), RU(2, 2, 3, 3), PtU(0, 0), true},
		{"overhang right", RU(8, 1, 5, 2), RU(8, 1, 2, 2), PtU(0, 0), true},
		{"overhang bottom", RU(1, 9, 2, 4), RU(1, 9, 2, 1), PtU(0, 0), true},
		{"outside", RU(20, 20, 2, 2), RectU{}, PointU{}, false},
		{"empty", RU(2, 2, 0, 3), RectU{}, PointU{}, false},
		{"width past uint32", RU(5, 5, math.MaxUint32, 3), RU(5, 5, 5, 3), PtU(0, 0), true},
		{"height past uint32", RU(1, 8, 2, math.MaxUint32), RU(1, 8, 2, 2), PtU(0, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, off, ok := bounds.Clip(tt.other)
			if ok != tt.wantOK || got != tt.want || off != tt.wantOff {
				t.Errorf("Clip(%+v) = %+v, %+v, %v; want %+v, %+v, %v",
					tt.other, got, off, ok, tt.want, tt.wantOff, tt.wantOK)
			}
		})
	}
}

func TestRectUClipOffset(t *testing.T) {
	bounds := RU(5, 5, 10, 10)
	got, off, ok := bounds.Clip(RU(2, 3, 6, 6))
	if !ok {
		t.Fatal("Clip reported no overlap")
	}
	if want := RU(5, 5, 3, 4); got != want {
		t.Errorf("clipped = %+v, want %+v", got, want)
	}
	if want := PtU(3, 2); off != want {
		t.Errorf("offset = %+v, want %+v", off, want)
	}
}

func TestRotationConversions(t *testing.T) {
	if got := Deg(180).Radians(); !approx(got, math32.Pi) {
		t.Errorf("Deg(180).Radians() = %v, want pi", got)
	}
	if got := Rad(math32.Pi / 2).Degrees(); !approx(got, 90) {
		t.Errorf("Rad(pi/2).Degrees() = %v, want 90", got)
	}
}

func TestScaling(t *testing.T) {
	var s Scaling
	if s.IsIdentity() {
		t.Error("zero Scaling reported as identity")
	}
	s.Uniform(3)
	if s != (Scaling{3, 3}) {
		t.Errorf("Uniform(3) = %+v", s)
	}
	s.Reset()
	if !s.IsIdentity() {
		t.Errorf("Reset() = %+v, want identity", s)
	}
}

func TestTransformMatrix(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		in   Point
		want Point
	}{
		{"identity", NewTransform(), Pt(3, 4), Pt(3, 4)},
		{"translate", NewTransform().WithPos(Pt(10, 20)), Pt(1, 1), Pt(11, 21)},
		{"scale", NewTransform().WithScale(Scaling{2, 3}), Pt(1, 1), Pt(2, 3)},
		{"rotate 90", NewTransform().WithRot(Deg(90)), Pt(1, 0), Pt(0, 1)},
		{
			"scale then rotate then translate",
			NewTransform().WithPos(Pt(5, 5)).WithRot(Deg(90)).WithScale(Scaling{2, 2}),
			Pt(1, 0),
			Pt(5, 7),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tr.Matrix().Apply(tt.in)
			if !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) {
				t.Errorf("Matrix().Apply(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformIsValue(t *testing.T) {
	a := NewTransform()
	b := a.WithPos(Pt(1, 2))
	if a.Pos != (Point{}) {
		t.Errorf("WithPos modified the receiver: %+v", a.Pos)
	}
	if b.Pos != Pt(1, 2) {
		t.Errorf("WithPos result = %+v", b.Pos)
	}
}
