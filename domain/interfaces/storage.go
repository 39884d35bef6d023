package interfaces

import "form_filler/domain/entities"

// Storage keeps run reports between invocations
type Storage interface {
	// SaveReport writes a run report and returns its path
	SaveReport(report *entities.Report) (string, error)

	// LoadReport reads a report by run id
	LoadReport(id string) (*entities.Report, error)

	// LatestReport returns the most recently written report, or nil
	LatestReport() (*entities.Report, error)
}
