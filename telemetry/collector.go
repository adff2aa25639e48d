package telemetry

import (
	"log/slog"

	"github.com/quillaja/revolver/physics"
	"github.com/quillaja/revolver/simulation"
)

// Collector is a simulation.Observer that computes FrameStats for every
// frame, writes them to an OutputManager and periodically logs a summary.
type Collector struct {
	dt       float64
	out      *OutputManager
	logEvery int
	log      *slog.Logger

	last   FrameStats
	merges int
	err    error
}

// NewCollector returns a collector. out may be nil; logEvery <= 0 disables
// the periodic summary.
func NewCollector(dt float64, out *OutputManager, logEvery int, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{dt: dt, out: out, logEvery: logEvery, log: log}
}

// ObserveFrame implements simulation.Observer.
func (c *Collector) ObserveFrame(res simulation.FrameResult, views []physics.View) {
	c.last = Compute(res, views, c.dt)
	c.merges += res.Merges

	if c.out != nil {
		if err := c.out.WriteFrame(c.last); err != nil {
			// stop writing; the simulation carries on
			c.log.Error("telemetry output disabled", "frame", res.Frame, "error", err)
			c.err = err
			c.out = nil
		}
	}

	if c.logEvery > 0 && res.Frame%uint64(c.logEvery) == 0 {
		c.log.Info("frame",
			"frame", c.last.Frame,
			"sim_time", c.last.SimTime,
			"live", c.last.Live,
			"merges_total", c.merges,
			"occluded", c.last.Occluded,
			"kinetic_energy", c.last.KineticEnergy,
			"speed_mean", c.last.SpeedMean,
		)
	}
}

// Last returns the statistics of the most recent frame.
func (c *Collector) Last() FrameStats { return c.last }

// TotalMerges is the number of absorptions seen so far.
func (c *Collector) TotalMerges() int { return c.merges }

// Err returns the output error that disabled writing, if any.
func (c *Collector) Err() error { return c.err }
