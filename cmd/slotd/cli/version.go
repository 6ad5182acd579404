package cli

// These values are set by the build process using ldflags.
var VersionName = "n/a"
var GitCommit = "n/a"
var BuildDate = "n/a"

func ShowVersion() {
	stdout.Printf("Version: %s\nCommit: %s\nDate: %s\n", VersionName, GitCommit, BuildDate)
}
