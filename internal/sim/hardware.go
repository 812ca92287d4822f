package sim

import "github.com/smazurov/videocore/internal/video"

var (
	_ video.Sensor         = (*Sensor)(nil)
	_ video.TransferEngine = (*Engine)(nil)
)

// Hardware bundles a capture device with the simulated collaborators
// behind it.
type Hardware struct {
	Profile *Profile
	Sensor  *Sensor
	Engine  *Engine
	Device  *video.Device
}

// NewHardware builds a closed capture device on top of simulated hardware.
func NewHardware(p *Profile, opts *video.Options) (*Hardware, error) {
	engine, err := NewEngine(p)
	if err != nil {
		return nil, err
	}
	sensor := NewSensor(p)
	return &Hardware{
		Profile: p,
		Sensor:  sensor,
		Engine:  engine,
		Device:  video.New(sensor, engine, opts),
	}, nil
}
