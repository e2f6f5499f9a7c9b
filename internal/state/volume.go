package state

// VolumeState represents the saved volume state.
type VolumeState struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

// GetVolume returns the saved volume state.
func (m *Manager) GetVolume() (*VolumeState, error) {
	return getVolume(m)
}

// SaveVolume persists the volume level.
func (m *Manager) SaveVolume(volume float64, muted bool) error {
	return SetJSON(m, KeyVolume, VolumeState{Volume: volume, Muted: muted})
}

func getVolume(s Store) (*VolumeState, error) {
	v, ok, err := GetJSON[VolumeState](s, KeyVolume)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &VolumeState{Volume: 1.0, Muted: false}, nil
	}
	return &v, nil
}
