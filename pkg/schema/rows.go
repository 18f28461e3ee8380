package schema

import "encoding/json"

// Rows is a JSON-decodable row batch. It exists so request bodies decode
// each object into an initialized ordered map, keeping per-row key order.
type Rows []Row

// UnmarshalJSON decodes a JSON array of objects into ordered rows.
func (rs *Rows) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]Row, len(raw))
	for i, msg := range raw {
		r := NewRow()
		if err := json.Unmarshal(msg, r); err != nil {
			return err
		}
		out[i] = r
	}
	*rs = Rows(out)
	return nil
}
