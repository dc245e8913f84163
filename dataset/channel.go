package dataset

import "strings"

// ChannelMap resolves a salesperson name to a sales channel. The mapping is
// configuration, not code: it is built from the `channels:` section of the
// YAML config with a default channel for unmapped names.
type ChannelMap struct {
	byName map[string]string
	def    string
}

// NewChannelMap builds a ChannelMap. Salesperson names are matched
// case-insensitively on their trimmed form.
func NewChannelMap(channels map[string]string, defaultChannel string) ChannelMap {
	m := ChannelMap{
		byName: make(map[string]string, len(channels)),
		def:    defaultChannel,
	}
	for name, channel := range channels {
		m.byName[channelKey(name)] = channel
	}
	return m
}

// Channel returns the channel for the given salesperson, falling back to the
// default channel for unmapped or empty names.
func (m ChannelMap) Channel(salesperson string) string {
	if c, ok := m.byName[channelKey(salesperson)]; ok {
		return c
	}
	return m.def
}

// Default returns the fallback channel.
func (m ChannelMap) Default() string { return m.def }

func channelKey(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
