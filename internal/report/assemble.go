// Package report turns scan outcomes into labelled, presentable reports.
package report

import (
	"netsage/internal/catalog"
	"netsage/internal/models"
)

// Labeler looks up a service label for a port; *catalog.Catalog satisfies it
type Labeler interface {
	Label(port int) (string, bool)
}

// Assemble attaches service labels to every outcome of scan.
// It neither performs I/O nor modifies scan.
func Assemble(scan models.ScanReport, labels Labeler) models.PresentableReport {
	out := models.PresentableReport{
		ScanID:  scan.ScanID,
		Target:  scan.Target,
		Address: scan.Address,
		Ports:   make([]models.PortEntry, 0, len(scan.Outcomes)),
		Summary: models.Summary{
			TotalPorts: len(scan.Outcomes),
			Duration:   int(scan.Duration.Milliseconds()),
		},
	}

	for _, o := range scan.Outcomes {
		label, ok := labels.Label(o.Port)
		if !ok {
			label = catalog.Unknown
		}
		out.Ports = append(out.Ports, models.PortEntry{
			Port:   o.Port,
			State:  o.State,
			Label:  label,
			Reason: o.Reason,
		})

		switch o.State {
		case models.PortStateOpen:
			out.Summary.OpenPorts++
		case models.PortStateClosed:
			out.Summary.ClosedPorts++
		case models.PortStateFiltered:
			out.Summary.FilteredPorts++
		default:
			out.Summary.Errors++
		}
	}

	return out
}
