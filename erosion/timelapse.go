package erosion

import (
	"fmt"

	"github.com/pthm-cable/terrafract/grid"
)

// Timelapse alternates short thermal and hydraulic runs and keeps a copy of
// the field after every step. A nil params pointer skips that stage. The
// returned slice has one frame per step; the input is not included.
func Timelapse(f *grid.Field, steps int, thermal *ThermalParams, hydraulic *HydraulicParams) ([]*grid.Field, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%w: timelapse steps %d", grid.ErrInvalidParameter, steps)
	}
	frames := make([]*grid.Field, 0, steps)
	cur := f
	for s := 0; s < steps; s++ {
		var err error
		if thermal != nil {
			if cur, err = Thermal(cur, *thermal); err != nil {
				return nil, fmt.Errorf("timelapse step %d: %w", s, err)
			}
		}
		if hydraulic != nil {
			if cur, err = Hydraulic(cur, *hydraulic); err != nil {
				return nil, fmt.Errorf("timelapse step %d: %w", s, err)
			}
		}
		frames = append(frames, cur.Copy())
	}
	return frames, nil
}
