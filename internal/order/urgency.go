package order

// Urgency is the order urgency code as stored by the API.
type Urgency string

const (
	UrgencyNormal     Urgency = "NRM"
	UrgencyUrgent     Urgency = "URG"
	UrgencyVeryUrgent Urgency = "VUR"
)

// IsValid checks if the code is a known urgency.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyVeryUrgent:
		return true
	}
	return false
}

// String returns the wire representation of the urgency.
func (u Urgency) String() string {
	return string(u)
}
