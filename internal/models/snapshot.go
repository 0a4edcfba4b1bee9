package models

import "encoding/json"

// Snapshot is the full persisted state used by file backends and backups.
type Snapshot struct {
	Students          []Student              `json:"students"`
	Transactions      []Transaction          `json:"transactions"`
	AdmissionRequests []AdmissionRequest     `json:"admission_requests"`
	WifiNetworks      []WifiNetwork          `json:"wifi_networks"`
	Announcement      *Announcement          `json:"announcement,omitempty"`
	Attachments       map[string]Attachments `json:"attachments,omitempty"`
}

// snapshotStudent mirrors Student but keeps the password hash when written to disk.
type snapshotStudent struct {
	Student
	PasswordHash string `json:"password_hash,omitempty"`
}

// Clone deep-copies the snapshot, leaving attachments shared.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Attachments: s.Attachments}
	out.Students = make([]Student, len(s.Students))
	for i, student := range s.Students {
		out.Students[i] = student.Clone()
	}
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	out.AdmissionRequests = make([]AdmissionRequest, len(s.AdmissionRequests))
	for i, req := range s.AdmissionRequests {
		req.PreferredSlots = req.PreferredSlots.Clone()
		out.AdmissionRequests[i] = req
	}
	out.WifiNetworks = append([]WifiNetwork(nil), s.WifiNetworks...)
	if s.Announcement != nil {
		a := *s.Announcement
		out.Announcement = &a
	}
	return out
}

type snapshotWire struct {
	Students          []snapshotStudent      `json:"students"`
	Transactions      []Transaction          `json:"transactions"`
	AdmissionRequests []AdmissionRequest     `json:"admission_requests"`
	WifiNetworks      []WifiNetwork          `json:"wifi_networks"`
	Announcement      *Announcement          `json:"announcement,omitempty"`
	Attachments       map[string]Attachments `json:"attachments,omitempty"`
}

// MarshalJSON keeps password hashes, which Student hides from API responses.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	wire := snapshotWire{
		Transactions:      s.Transactions,
		AdmissionRequests: s.AdmissionRequests,
		WifiNetworks:      s.WifiNetworks,
		Announcement:      s.Announcement,
		Attachments:       s.Attachments,
	}
	wire.Students = make([]snapshotStudent, len(s.Students))
	for i, student := range s.Students {
		wire.Students[i] = snapshotStudent{Student: student, PasswordHash: student.PasswordHash}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler. A missing students key leaves Students nil.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var wire snapshotWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = Snapshot{
		Transactions:      wire.Transactions,
		AdmissionRequests: wire.AdmissionRequests,
		WifiNetworks:      wire.WifiNetworks,
		Announcement:      wire.Announcement,
		Attachments:       wire.Attachments,
	}
	if wire.Students != nil {
		s.Students = make([]Student, len(wire.Students))
		for i, item := range wire.Students {
			student := item.Student
			student.PasswordHash = item.PasswordHash
			s.Students[i] = student
		}
	}
	return nil
}
