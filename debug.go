package bramble

import "time"

// debugStats accumulates per-frame timings between debug log lines.
// Only populated when Config.Debug is true.
type debugStats struct {
	frames     int
	updateTime time.Duration
	drawTime   time.Duration
	peakUpdate time.Duration
	created    int
	dropped    int
}

// debugLogEvery is the number of frames folded into one debug line.
const debugLogEvery = 60

// debugLog folds st into the running debug stats and logs one line every
// debugLogEvery frames.
func (d *Driver) debugLog(st FrameStats) {
	s := &d.debug
	s.frames++
	s.updateTime += st.UpdateTime
	s.drawTime += st.DrawTime
	s.peakUpdate = max(s.peakUpdate, st.UpdateTime)
	s.created += st.Tick.Created
	s.dropped += st.Tick.Dropped
	if s.frames < debugLogEvery {
		return
	}

	n := time.Duration(s.frames)
	d.log.Debug().
		Int("frame", st.Frame).
		Dur("update_avg", s.updateTime/n).
		Dur("update_peak", s.peakUpdate).
		Dur("draw_avg", s.drawTime/n).
		Int("segments", st.Segments).
		Int("drawn", st.Drawn).
		Int("created", s.created).
		Int("dropped", s.dropped).
		Int("dormant", st.Dormant).
		Int("rects", st.FieldRects).
		Str("phase", st.Phase.String()).
		Msg("frame stats")
	*s = debugStats{}
}
