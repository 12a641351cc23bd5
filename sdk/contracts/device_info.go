package contracts

// DeviceInfo contains information about a MIDI input device.
type DeviceInfo struct {
	ID           int    // Position of the device in the listing; pass it to SelectDevice.
	Name         string // Device name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the device belongs.
}

// Label returns the text shown to the operator when choosing a device.
func (d DeviceInfo) Label() string {
	if d.Manufacturer == "" || d.Manufacturer == d.Name {
		return d.Name
	}
	return d.Name + " (" + d.Manufacturer + ")"
}
