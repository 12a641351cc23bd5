package midi

import "github.com/leandrodaf/midisynth/sdk/contracts"

// filteredClient applies a MIDIEventFilter to channel messages before they
// reach the capture handler. System messages always pass.
type filteredClient struct {
	contracts.ClientMIDI
	filter *contracts.MIDIEventFilter
}

// withEventFilter wraps client when filter is set.
func withEventFilter(client contracts.ClientMIDI, filter *contracts.MIDIEventFilter) contracts.ClientMIDI {
	if filter == nil {
		return client
	}
	return &filteredClient{ClientMIDI: client, filter: filter}
}

func (c *filteredClient) StartCapture(handler contracts.RawHandler, onError func(error)) error {
	return c.ClientMIDI.StartCapture(func(data []byte, timestamp uint64) {
		if len(data) > 0 && data[0] >= 0x80 && data[0] < 0xF0 && !c.filter.Allows(data[0]) {
			return
		}
		handler(data, timestamp)
	}, onError)
}
