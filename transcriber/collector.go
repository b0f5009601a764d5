package transcriber

// Callbacks are optional per-run observers. Both may be nil. They are
// invoked from the driver's event loop, so they must not block.
type Callbacks struct {
	OnProgress func(pct float64)
	OnSegment  func(seg Segment)
}

// collector accumulates finalized segments in playback-time order.
// Append order is authoritative: the engine is restarted mid-run and
// its internal result indices reset, so engine-local ordering is
// meaningless across sessions.
type collector struct {
	segments []Segment
	duration float64
	cb       Callbacks
}

func newCollector(duration float64, cb Callbacks) *collector {
	return &collector{duration: duration, cb: cb}
}

// append closes the next segment at playback position pos. The segment
// begins where the previous one ended (0 for the first), keeping the
// sequence contiguous.
func (c *collector) append(text string, confidence, pos float64) {
	start := 0.0
	if n := len(c.segments); n > 0 {
		start = c.segments[n-1].End
	}
	if pos < start {
		pos = start
	}
	seg := Segment{
		Text:       text,
		Start:      start,
		End:        pos,
		Speaker:    SpeakerUnassigned,
		Confidence: confidence,
	}
	c.segments = append(c.segments, seg)
	if c.cb.OnSegment != nil {
		c.cb.OnSegment(seg)
	}
	c.progress(pos)
}

func (c *collector) progress(pos float64) {
	if c.cb.OnProgress == nil || c.duration <= 0 {
		return
	}
	pct := pos / c.duration * 100
	if pct > 100 {
		pct = 100
	}
	c.cb.OnProgress(pct)
}

// finish extends the last segment to the full playback duration so the
// sequence spans [0, duration] exactly, and reports 100%.
func (c *collector) finish() []Segment {
	if n := len(c.segments); n > 0 && c.segments[n-1].End < c.duration {
		c.segments[n-1].End = c.duration
	}
	if c.cb.OnProgress != nil {
		c.cb.OnProgress(100)
	}
	return c.segments
}
