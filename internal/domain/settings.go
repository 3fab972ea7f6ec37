package domain

// BrowserDriver describes the provisioned browser executable.
type BrowserDriver struct {
	Path    string
	Version string
}

func (d BrowserDriver) IsZero() bool {
	return d.Path == "" && d.Version == ""
}

type Settings struct {
	Automation     bool
	Browser        BrowserDriver
	ScheduledTasks []string
}
