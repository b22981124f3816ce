package core

// Snapshot is a read-only copy of every collection at one point in time.
// Version changes whenever the underlying data changes, so derived values can
// be memoized by it.
type Snapshot struct {
	Version          uint64                    `json:"version"`
	Students         []Student                 `json:"students"`
	Groups           []Group                   `json:"groups"`
	Payments         []Payment                 `json:"payments"`
	Expenses         []Expense                 `json:"expenses"`
	Settings         *ReminderSettings         `json:"settings"`
	GroupOverrides   []GroupReminderOverride   `json:"group_overrides"`
	StudentOverrides []StudentReminderOverride `json:"student_overrides"`
}

// Student returns the first student with the given id.
func (s Snapshot) Student(id string) (Student, bool) {
	if id == "" {
		return Student{}, false
	}
	for _, st := range s.Students {
		if st.ID == id {
			return st, true
		}
	}
	return Student{}, false
}

// Group returns the first group with the given id.
func (s Snapshot) Group(id string) (Group, bool) {
	if id == "" {
		return Group{}, false
	}
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Payment returns the payment with the given id.
func (s Snapshot) Payment(id string) (Payment, bool) {
	for _, p := range s.Payments {
		if p.ID == id {
			return p, true
		}
	}
	return Payment{}, false
}
