package sciio

import "fmt"

// AxisType names the dimension an axis represents.
type AxisType int

const (
	AxisUnknown AxisType = iota
	AxisX
	AxisY
	AxisZ
	AxisChannel
	AxisTime
)

func (t AxisType) String() string {
	switch t {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	case AxisChannel:
		return "Channel"
	case AxisTime:
		return "Time"
	case AxisUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("AxisType(%d)", int(t))
	}
}

// Axis is one dimension of an image in storage order.
type Axis struct {
	Type   AxisType
	Label  string // optional; identifies Unknown axes
	Length int64
}

// Name returns the label if set, otherwise the type name.
func (a Axis) Name() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Type.String()
}

func (a Axis) String() string {
	return fmt.Sprintf("%s=%d", a.Name(), a.Length)
}
