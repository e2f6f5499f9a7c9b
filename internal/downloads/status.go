package downloads

// Status is the lifecycle state of a download job.
type Status string

// Status constants for download jobs.
const (
	StatusIdle        Status = "idle"
	StatusDownloading Status = "downloading"
	StatusSuccess     Status = "success"
	StatusError       Status = "error"
)

// IsTerminal reports whether no transfer is running for the job.
func (s Status) IsTerminal() bool {
	return s != StatusDownloading
}

// Label returns the text shown for the status in a downloads list.
func (s Status) Label() string {
	switch s {
	case StatusIdle:
		return "Not downloaded"
	case StatusDownloading:
		return "Downloading"
	case StatusSuccess:
		return "Downloaded"
	case StatusError:
		return "Failed"
	default:
		return string(s)
	}
}
