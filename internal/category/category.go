package category

// Category is the closed set of expense categories.
type Category string

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Utilities     Category = "Utilities"
	Shopping      Category = "Shopping"
	Other         Category = "Other"
)

var all = []Category{Food, Transport, Entertainment, Utilities, Shopping, Other}

var descriptions = map[Category]string{
	Food:          "Meals, groceries and drinks",
	Transport:     "Fuel, fares, parking and rides",
	Entertainment: "Events, subscriptions and leisure",
	Utilities:     "Power, water, internet and phone bills",
	Shopping:      "Clothing, household and personal goods",
	Other:         "Anything that fits no other category",
}

// All returns the categories in their canonical order.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

func Names() []string {
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return names
}

func (c Category) Valid() bool {
	_, ok := descriptions[c]
	return ok
}

func (c Category) Description() string {
	return descriptions[c]
}

func Parse(name string) (Category, bool) {
	c := Category(name)
	return c, c.Valid()
}
