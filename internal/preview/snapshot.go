package preview

import (
	"math"
	"time"

	"github.com/muurk/discojar/internal/lamp"
)

// Snapshot is the JSON form of a lamp state.
type Snapshot struct {
	Seq        uint64    `json:"seq"`
	Mode       int       `json:"mode"`
	ModeName   string    `json:"mode_name"`
	Brightness int       `json:"brightness"`
	Color0     string    `json:"color0"`
	Color1     string    `json:"color1"`
	Param0     int       `json:"param0"`
	Param1     int       `json:"param1"`
	Decay      *float64  `json:"decay"` // null when not finite
	Gain       *float64  `json:"gain"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSnapshot converts s. NaN and infinite floats, which a packet may
// legally carry, become null since JSON cannot represent them.
func NewSnapshot(seq uint64, s lamp.State, at time.Time) Snapshot {
	return Snapshot{
		Seq:        seq,
		Mode:       int(s.Mode),
		ModeName:   s.Mode.String(),
		Brightness: int(s.Brightness),
		Color0:     s.Color0.Hex(),
		Color1:     s.Color1.Hex(),
		Param0:     int(s.Param0),
		Param1:     int(s.Param1),
		Decay:      finite(s.Decay),
		Gain:       finite(s.Gain),
		UpdatedAt:  at,
	}
}

func finite(f float32) *float64 {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
