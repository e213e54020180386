package valueobjects

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

func (s Status) IsPending() bool {
	return s == StatusPending
}

// IsSuccessful reports a settled payment. paid comes from the processor
// callback path, succeeded from the signed webhook path.
func (s Status) IsSuccessful() bool {
	return s == StatusPaid || s == StatusSucceeded
}

func (s Status) IsTerminal() bool {
	return s.IsSuccessful() || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}
