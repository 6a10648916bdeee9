package commands

// SetClipboardForTest replaces the clipboard writer and returns a restore func
func SetClipboardForTest(fn func(string) error) func() {
	prev := copyToClipboard
	copyToClipboard = fn
	return func() { copyToClipboard = prev }
}

// CheckGenerationAllowedForTest exposes checkGenerationAllowed
var CheckGenerationAllowedForTest = checkGenerationAllowed

// SetReleasesURLForTest points "version --check" at url and returns a restore func
func SetReleasesURLForTest(url string) func() {
	prev := releasesURL
	releasesURL = url
	return func() { releasesURL = prev }
}
