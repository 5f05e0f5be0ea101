package classify

// suggestions is the total category-to-advice table. Every category has an
// entry; the test suite enforces totality.
var suggestions = map[Category]string{
	ElementNotFound: "Verify the locator is correct and the element exists. Consider increasing the wait timeout or checking whether the element lives in a different frame.",
	StaleElement:    "Re-resolve the element before interacting with it. This usually happens when page content changes after the element is found.",
	Timeout:         "Increase the wait timeout or verify the expected condition is achievable. Check whether the page is loading slowly.",
	DriverError:     "Check that the browser session is still active. Consider recreating the session or switching to a different browser.",
	Network:         "Check network connectivity and application availability. Verify URLs and endpoints are reachable.",
	Assertion:       "Review the test expectations and verify application behavior. Check whether test data or application state is correct.",
	Config:          "Verify configuration files and environment settings. Check property values and file paths.",
	Data:            "Validate test data format and availability. Ensure data files exist and contain the expected values.",
	Application:     "Check application logs for server-side errors. Verify the application is in the expected state.",
	Unknown:         "Review the failure details and debug the specific scenario.",
}

// Suggestion returns the recovery advice for a category. Unrecognized
// categories get the Unknown advice, so the lookup is total.
func Suggestion(category Category) string {
	if s, ok := suggestions[category]; ok {
		return s
	}
	return suggestions[Unknown]
}
