package codec

import (
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

// MissionItem is the MAVLink-style wire representation of a mission item.
// For global frames x is latitude, y longitude and z altitude.
type MissionItem struct {
	Seq          int     `json:"seq"`
	Frame        int     `json:"frame"`
	Command      int     `json:"command"`
	Current      int     `json:"current"`
	AutoContinue int     `json:"autocontinue"`
	Param1       float64 `json:"param1"`
	Param2       float64 `json:"param2"`
	Param3       float64 `json:"param3"`
	Param4       float64 `json:"param4"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (m *MissionItem) toModel() (model.MissionItem, error) {
	cmd := model.Command(m.Command)
	if !cmd.Valid() {
		return model.MissionItem{}, parseErr("mission item "+itoa(m.Seq), fmt.Errorf("unsupported command %d", m.Command))
	}
	return model.MissionItem{
		Seq:          m.Seq,
		Frame:        model.Frame(m.Frame),
		Command:      cmd,
		Current:      m.Current != 0,
		AutoContinue: m.AutoContinue != 0,
		Params:       [4]float64{m.Param1, m.Param2, m.Param3, m.Param4},
		Lat:          m.X,
		Lon:          m.Y,
		Alt:          m.Z,
	}, nil
}

// FromMissionItems converts encoded mission items to their wire form.
func FromMissionItems(items []model.MissionItem) []MissionItem {
	out := make([]MissionItem, 0, len(items))
	for _, it := range items {
		out = append(out, MissionItem{
			Seq:          it.Seq,
			Frame:        int(it.Frame),
			Command:      int(it.Command),
			Current:      boolToInt(it.Current),
			AutoContinue: boolToInt(it.AutoContinue),
			Param1:       it.Params[0],
			Param2:       it.Params[1],
			Param3:       it.Params[2],
			Param4:       it.Params[3],
			X:            it.Lat,
			Y:            it.Lon,
			Z:            it.Alt,
		})
	}
	return out
}

// DecodeMissionItems decodes an ordered list of mission items. A JSON null
// decodes to an empty mission.
func DecodeMissionItems(payload []byte) ([]model.MissionItem, error) {
	var ws []MissionItem
	if err := json.Unmarshal(payload, &ws); err != nil {
		return nil, parseErr("mission items", err)
	}
	out := make([]model.MissionItem, 0, len(ws))
	for i := range ws {
		it, err := ws[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// EncodeMissionItems renders mission items as the JSON upload body.
func EncodeMissionItems(items []model.MissionItem) ([]byte, error) {
	return json.Marshal(FromMissionItems(items))
}
