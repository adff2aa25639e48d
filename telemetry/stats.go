// Package telemetry derives per-frame statistics from simulation snapshots
// and writes them out as CSV.
package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/quillaja/revolver/physics"
	"github.com/quillaja/revolver/simulation"
)

// FrameStats holds aggregated statistics for one frame.
type FrameStats struct {
	Frame   uint64  `csv:"frame"`
	SimTime float64 `csv:"sim_time"`

	// Population
	Slots    int `csv:"slots"`
	Live     int `csv:"live"`
	Spawned  int `csv:"spawned"`
	Merges   int `csv:"merges"`
	Occluded int `csv:"occluded"`

	// Mechanics over live bodies
	TotalMass     float64 `csv:"total_mass"`
	KineticEnergy float64 `csv:"kinetic_energy"`
	MomentumX     float64 `csv:"momentum_x"`
	MomentumY     float64 `csv:"momentum_y"`
	MomentumZ     float64 `csv:"momentum_z"`

	// Ordinary-body speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`

	// Mass-weighted centre of the live population
	CenterX float64 `csv:"center_x"`
	CenterY float64 `csv:"center_y"`
	CenterZ float64 `csv:"center_z"`
}

// Compute summarizes views after the frame described by res.
func Compute(res simulation.FrameResult, views []physics.View, dt float64) FrameStats {
	s := FrameStats{
		Frame:    res.Frame,
		SimTime:  float64(res.Frame) * dt,
		Slots:    len(views),
		Spawned:  len(res.Spawned),
		Merges:   res.Merges,
		Occluded: res.Occluded,
	}

	n := len(views)
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	zs := make([]float64, 0, n)
	masses := make([]float64, 0, n)
	speeds := make([]float64, 0, n)

	for _, v := range views {
		if !v.Alive {
			continue
		}
		s.Live++
		s.TotalMass += v.Mass
		s.KineticEnergy += 0.5 * v.Mass * v.Vel.Dot(v.Vel)
		s.MomentumX += v.Mass * v.Vel[0]
		s.MomentumY += v.Mass * v.Vel[1]
		s.MomentumZ += v.Mass * v.Vel[2]

		xs = append(xs, v.Pos[0])
		ys = append(ys, v.Pos[1])
		zs = append(zs, v.Pos[2])
		masses = append(masses, v.Mass)
		if !v.Primary {
			speeds = append(speeds, v.Vel.Len())
		}
	}

	switch len(speeds) {
	case 0:
	case 1:
		s.SpeedMean = speeds[0]
	default:
		s.SpeedMean, s.SpeedStd = stat.MeanStdDev(speeds, nil)
	}

	if s.TotalMass > 0 {
		s.CenterX = stat.Mean(xs, masses)
		s.CenterY = stat.Mean(ys, masses)
		s.CenterZ = stat.Mean(zs, masses)
	}
	return s
}
