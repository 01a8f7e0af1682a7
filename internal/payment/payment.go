package payment

// Method is how an expense was paid.
type Method string

const (
	Cash         Method = "Cash"
	Card         Method = "Card"
	BankTransfer Method = "Bank Transfer"
	Other        Method = "Other"
)

// Default is used when an expense is recorded without a payment method.
const Default = Cash

var all = []Method{Cash, Card, BankTransfer, Other}

func All() []Method {
	out := make([]Method, len(all))
	copy(out, all)
	return out
}

func Names() []string {
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = string(m)
	}
	return names
}

func (m Method) Valid() bool {
	for _, known := range all {
		if m == known {
			return true
		}
	}
	return false
}

// Parse maps an empty name to Default.
func Parse(name string) (Method, bool) {
	if name == "" {
		return Default, true
	}
	m := Method(name)
	return m, m.Valid()
}
