package classify

// Category is the fixed enumeration a failure cause is mapped into for
// diagnostics and suggestion lookup.
type Category string

const (
	ElementNotFound Category = "element_not_found"
	StaleElement    Category = "stale_element"
	Timeout         Category = "timeout"
	DriverError     Category = "driver_error"
	Network         Category = "network"
	Assertion       Category = "assertion"
	Config          Category = "config"
	Data            Category = "data"
	Application     Category = "application"
	Unknown         Category = "unknown"
)

// Categories lists every classification category.
var Categories = []Category{
	ElementNotFound,
	StaleElement,
	Timeout,
	DriverError,
	Network,
	Assertion,
	Config,
	Data,
	Application,
	Unknown,
}

func (c Category) String() string {
	return string(c)
}
